// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/alerting"
	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/errorlog"
	"github.com/tomtom215/loglens/internal/export"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/policy"
	"github.com/tomtom215/loglens/internal/query"
	"github.com/tomtom215/loglens/internal/search"
	"github.com/tomtom215/loglens/internal/usage"
)

// maxBodyBytes caps request bodies. Query DSL documents are small.
const maxBodyBytes = 4 << 20

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	Config    *config.Config
	Policies  *policy.Store
	Search    *search.Client
	Cache     *cache.Cache
	Rewriter  *query.Rewriter
	Usage     *usage.Store
	Streamer  *export.Streamer
	Rules     *alerting.RuleStore
	Scheduler *alerting.Scheduler
	ErrorLog  *errorlog.Store
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, shared helpers (this file)
//   - handlers_health.go: health, identity and discovery endpoints
//   - handlers_search.go: proxied search
//   - handlers_export.go: export estimate and streaming download
//   - handlers_admin.go: policy, cache, usage, error log and alert rules
type Handler struct {
	config    *config.Config
	policies  *policy.Store
	search    *search.Client
	cache     *cache.Cache
	rewriter  *query.Rewriter
	usage     *usage.Store
	streamer  *export.Streamer
	rules     *alerting.RuleStore
	scheduler *alerting.Scheduler
	errors    *errorlog.Store
	maskers   *maskerCache
	startTime time.Time
}

// NewHandler creates the API handler. Replacing the policy clears the
// response cache, since cached bodies were shaped by the old rules.
func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		config:    deps.Config,
		policies:  deps.Policies,
		search:    deps.Search,
		cache:     deps.Cache,
		rewriter:  deps.Rewriter,
		usage:     deps.Usage,
		streamer:  deps.Streamer,
		rules:     deps.Rules,
		scheduler: deps.Scheduler,
		errors:    deps.ErrorLog,
		maskers:   &maskerCache{},
		startTime: time.Now(),
	}
	if h.rewriter == nil {
		h.rewriter = query.NewRewriter()
	}
	if h.cache != nil {
		h.policies.OnReplace(func(*models.Policy) {
			h.cache.Clear()
		})
	}
	return h
}

// maskerCache keeps the compiled masker for the current policy snapshot.
// Snapshots are immutable, so the pointer identifies the rule set.
type maskerCache struct {
	mu          sync.Mutex
	policy      *models.Policy
	masker      *pii.Masker
	fingerprint string
}

func (m *maskerCache) get(p *models.Policy) (*pii.Masker, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.policy == p && m.policy != nil {
		return m.masker, m.fingerprint, nil
	}
	masker, err := pii.Compile(p.PiiFieldRules)
	if err != nil {
		return nil, "", err
	}
	m.policy = p
	m.masker = masker
	m.fingerprint = cache.Fingerprint(p.PiiFieldRules)
	return masker, m.fingerprint, nil
}

// decodeBody reads a JSON object from the request. An empty body decodes
// to an empty map; numbers keep their literal form.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("request body must be a JSON object")
	}
	return nil
}

// clientIP returns the remote address without its port. RealIP has
// already replaced it with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// indexSetting returns the exact-match settings entry for pattern.
func indexSetting(p *models.Policy, pattern string) *models.IndexPatternSetting {
	if s, ok := p.PatternSetting(pattern); ok {
		return &s
	}
	return nil
}
