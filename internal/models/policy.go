// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import "time"

// PiiAction is the redaction applied to a matched field.
type PiiAction string

const (
	// PiiHide removes the field from its parent container.
	PiiHide PiiAction = "hide"
	// PiiMask replaces the value with MaskedValue.
	PiiMask PiiAction = "mask"
	// PiiPartial keeps the first and last characters of a scalar.
	PiiPartial PiiAction = "partial"
)

// MaskedValue replaces any value under a mask rule.
const MaskedValue = "[masked]"

// PiiRule redacts every leaf whose dotted path matches Pattern.
// Pattern uses * as a wildcard; array indices are path segments.
type PiiRule struct {
	Pattern string    `json:"pattern" validate:"required,max=256"`
	Action  PiiAction `json:"action" validate:"required,oneof=hide mask partial"`
}

// IndexPatternSetting overrides search defaults for an exact index pattern.
type IndexPatternSetting struct {
	Pattern      string   `json:"pattern" validate:"required"`
	TimeField    string   `json:"timeField,omitempty"`
	SearchFields []string `json:"searchFields,omitempty"`
	SearchMode   string   `json:"searchMode,omitempty" validate:"omitempty,oneof=and or"`
}

// Features is a set of capability flags. It is used both for the per-team
// toggles stored in the policy and for the effective set of a caller.
type Features struct {
	Exports         bool `json:"exports"`
	Bookmarks       bool `json:"bookmarks"`
	Rules           bool `json:"rules"`
	QueryBuilder    bool `json:"queryBuilder"`
	LimitTo7Days    bool `json:"limitTo7Days"`
	PiiUnmasked     bool `json:"piiUnmasked"`
	ShowFullResults bool `json:"showFullResults"`
}

// Policy is the admin-configured snapshot evaluated on every request.
// A Policy is never mutated after it is published; updates build a new value.
type Policy struct {
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	IndexOptions         []string              `json:"indexOptions"`
	IndexPatternSettings []IndexPatternSetting `json:"indexPatternSettings" validate:"dive"`
	TeamIndexAccess      map[string][]string   `json:"teamIndexAccess"`
	UserIndexAccess      map[string][]string   `json:"userIndexAccess"`
	PiiFieldRules        []PiiRule             `json:"piiFieldRules" validate:"dive"`
	FeatureToggles       map[string]Features   `json:"featureToggles"`
	MaxExportSize        int                   `json:"maxExportSize" validate:"gte=0"`
	DefaultIndexPattern  string                `json:"defaultIndexPattern"`
}

// PatternSetting returns the settings entry whose pattern equals pattern.
func (p *Policy) PatternSetting(pattern string) (IndexPatternSetting, bool) {
	for _, s := range p.IndexPatternSettings {
		if s.Pattern == pattern {
			return s, true
		}
	}
	return IndexPatternSetting{}, false
}
