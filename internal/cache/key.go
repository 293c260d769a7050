// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"
)

// KeyParts lists everything that can change a cached response. Leaving a
// field out lets one caller's response be served to another.
type KeyParts struct {
	Op                string `json:"op"`
	Scope             string `json:"scope"`
	Index             string `json:"index"`
	Unmasked          bool   `json:"unmasked"`
	PolicyFingerprint string `json:"policy"`
	Body              any    `json:"body"`
}

// Key builds the cache key for a response. The operation name stays
// readable as a prefix; the rest is hashed.
func Key(p KeyParts) string {
	return GenerateKey(p.Op, p)
}

// GenerateKey creates a cache key from the method name and parameters
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

// Fingerprint hashes any policy fragment that shapes a response, such as
// the PII rule list, so it can be used as KeyParts.PolicyFingerprint.
func Fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
