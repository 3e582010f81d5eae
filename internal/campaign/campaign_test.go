package campaign

import (
	"strings"
	"testing"

	cfgpkg "github.com/DubyaFM/quartermaster/internal/config"
)

func testConfig() cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = "/tmp/qm-test"
	return cfg
}

func TestEnsureIsIdempotent(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	a, err := r.Ensure("greyfane")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, err := r.Ensure("greyfane")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if a != b {
		t.Fatalf("ensure not idempotent: %#v vs %#v", a, b)
	}
	if !strings.HasSuffix(a.LogPath, "greyfane/activity-log.md") {
		t.Fatalf("log path = %q", a.LogPath)
	}
}

func TestEnsureRejectsBadIDs(t *testing.T) {
	r, _ := NewRegistry(testConfig())
	for _, id := range []string{"", "Has Spaces", "UPPER", "../escape", strings.Repeat("x", 80)} {
		if _, err := r.Ensure(id); err == nil {
			t.Fatalf("id %q should be rejected", id)
		}
	}
}

func TestAllowedListAndLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedCampaigns = []string{"greyfane"}
	r, _ := NewRegistry(cfg)
	if _, err := r.Ensure("ashvale"); err == nil {
		t.Fatalf("id outside allow-list should be rejected")
	}
	if _, err := r.Ensure("greyfane"); err != nil {
		t.Fatalf("allowed id rejected: %v", err)
	}

	cfg = testConfig()
	cfg.MaxCampaigns = 1
	r, _ = NewRegistry(cfg)
	if _, err := r.Ensure("one"); err != nil {
		t.Fatalf("first campaign: %v", err)
	}
	if _, err := r.Ensure("two"); err == nil {
		t.Fatalf("limit should reject second campaign")
	}
	if _, err := r.Ensure("one"); err != nil {
		t.Fatalf("existing campaign should survive the limit: %v", err)
	}
}
