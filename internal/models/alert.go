// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import "time"

// AlertRule fires when the number of searches matching Query within the
// trailing WindowMinutes exceeds Threshold.
type AlertRule struct {
	ID            string `json:"id" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=200"`
	Query         string `json:"query" validate:"required"`
	Threshold     int    `json:"threshold" validate:"gte=0"`
	WindowMinutes int    `json:"windowMinutes" validate:"gte=1,lte=10080"`
	Team          string `json:"team,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
}

// AlertRuleSet is the persisted list of rules.
type AlertRuleSet struct {
	Rules []AlertRule `json:"rules" validate:"dive"`
}

// AlertState records when each rule last fired successfully.
type AlertState struct {
	LastTriggeredAt map[string]time.Time `json:"lastTriggeredAt"`
}
