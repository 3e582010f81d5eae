// Package campaign is the registry of known campaigns and their activity-log
// locations. It enforces naming and count limits from configuration; it
// knows nothing about event semantics.
package campaign

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	cfgpkg "github.com/DubyaFM/quartermaster/internal/config"
)

// Meta holds one campaign's registry record.
type Meta struct {
	ID          string
	CreatedAtMs int64
	LogPath     string
}

// Registry validates campaign ids and maps them to per-campaign log files
// under the data directory.
type Registry struct {
	cfg     cfgpkg.Config
	pattern *regexp.Regexp

	mu    sync.Mutex
	known map[string]Meta
}

// NewRegistry builds a Registry from configuration.
func NewRegistry(cfg cfgpkg.Config) (*Registry, error) {
	pattern, err := regexp.Compile("^" + cfg.CampaignIDRegex + "$")
	if err != nil {
		return nil, fmt.Errorf("campaign id regex: %w", err)
	}
	return &Registry{cfg: cfg, pattern: pattern, known: map[string]Meta{}}, nil
}

// Ensure registers id if absent and returns its record. Idempotent.
func (r *Registry) Ensure(id string) (Meta, error) {
	if !r.pattern.MatchString(id) {
		return Meta{}, fmt.Errorf("campaign id %q does not match %s", id, r.pattern)
	}
	if len(r.cfg.AllowedCampaigns) > 0 && !contains(r.cfg.AllowedCampaigns, id) {
		return Meta{}, fmt.Errorf("campaign %q is not in the allowed list", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.known[id]; ok {
		return m, nil
	}
	if r.cfg.MaxCampaigns > 0 && len(r.known) >= r.cfg.MaxCampaigns {
		return Meta{}, fmt.Errorf("campaign limit reached (%d)", r.cfg.MaxCampaigns)
	}
	m := Meta{
		ID:          id,
		CreatedAtMs: time.Now().UnixMilli(),
		LogPath:     filepath.Join(r.cfg.DataDir, id, r.cfg.LogFileName),
	}
	r.known[id] = m
	return m, nil
}

// Known returns the ids registered so far.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.known))
	for id := range r.known {
		out = append(out, id)
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
