// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package search

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestFieldCaps(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/_field_caps") || r.URL.Query().Get("fields") != "*" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"indices":["logs-a"],"fields":{
			"_id":{"_id":{"type":"_id","searchable":true,"aggregatable":true}},
			"user":{"object":{"type":"object","searchable":false,"aggregatable":false}},
			"user.name":{"keyword":{"type":"keyword","searchable":true,"aggregatable":true}},
			"message":{"text":{"type":"text","searchable":true,"aggregatable":false}}
		}}`)
	})

	fields, err := c.FieldCaps(context.Background(), "logs-*")
	if err != nil {
		t.Fatal(err)
	}
	want := []Field{
		{Name: "message", Type: "text", Searchable: true},
		{Name: "user.name", Type: "keyword", Searchable: true, Aggregatable: true},
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("FieldCaps = %+v, want %+v", fields, want)
	}
}

func TestDiscoverFields_FallsBackToSampling(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/_field_caps") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":"no"}`)
			return
		}
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_source":{"user":{"email":"a@b"},"tags":["x"],"events":[{"code":1}]}},
			{"_source":{"level":"info"}}
		]}}`)
	})

	fields, err := c.DiscoverFields(context.Background(), "logs-*")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	want := []string{"events.code", "level", "tags", "user.email"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestDiscoverFields_FallbackFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"reason":"no such index"}}`)
	})

	_, err := c.DiscoverFields(context.Background(), "missing-*")
	if ue, ok := AsUpstream(err); !ok || ue.Status != http.StatusNotFound {
		t.Errorf("expected 404 from the fallback search, got %v", err)
	}
}
