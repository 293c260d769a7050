// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

func baseParts() KeyParts {
	return KeyParts{
		Op:                "search",
		Scope:             "u-1",
		Index:             "logs-*",
		Unmasked:          false,
		PolicyFingerprint: Fingerprint([]models.PiiRule{{Pattern: "user.email", Action: models.PiiMask}}),
		Body:              map[string]any{"query": map[string]any{"match_all": map[string]any{}}},
	}
}

func TestKey_EveryPartMatters(t *testing.T) {
	base := Key(baseParts())

	variants := map[string]func(*KeyParts){
		"op":       func(p *KeyParts) { p.Op = "fields" },
		"scope":    func(p *KeyParts) { p.Scope = models.PublicScope },
		"index":    func(p *KeyParts) { p.Index = "audit-*" },
		"unmasked": func(p *KeyParts) { p.Unmasked = true },
		"policy":   func(p *KeyParts) { p.PolicyFingerprint = Fingerprint([]models.PiiRule{}) },
		"body":     func(p *KeyParts) { p.Body = map[string]any{"size": 10} },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			p := baseParts()
			mutate(&p)
			if Key(p) == base {
				t.Errorf("changing %s did not change the key", name)
			}
		})
	}
}

func TestKey_StableAndPrefixed(t *testing.T) {
	a := Key(baseParts())
	b := Key(baseParts())
	if a != b {
		t.Errorf("Key not deterministic: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "search:") {
		t.Errorf("Key %q missing op prefix", a)
	}
}

// A caller allowed to see raw PII must never prime an entry that a masked
// caller can read, even for the same index and body.
func TestKey_UnmaskedVariantIsolation(t *testing.T) {
	c := New(time.Minute, 100)
	defer c.Close()

	masked := baseParts()
	masked.Scope = "alice"
	unmasked := baseParts()
	unmasked.Scope = "bob"
	unmasked.Unmasked = true

	c.Set(Key(unmasked), []byte(`{"email":"a@b.com"}`))

	if _, ok := c.Get(Key(masked)); ok {
		t.Fatal("masked caller was served the unmasked entry")
	}

	c.Set(Key(masked), []byte(`{"email":"[masked]"}`))
	v, ok := c.Get(Key(unmasked))
	if !ok || string(v.([]byte)) != `{"email":"a@b.com"}` {
		t.Errorf("unmasked entry overwritten: %v", v)
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	key := GenerateKey("op", make(chan int))
	if !strings.HasPrefix(key, "op:") {
		t.Errorf("fallback key %q missing prefix", key)
	}
}
