package runtime

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/DubyaFM/quartermaster/internal/campaign"
	cfgpkg "github.com/DubyaFM/quartermaster/internal/config"
	"github.com/DubyaFM/quartermaster/internal/logstore"
	"github.com/DubyaFM/quartermaster/internal/storage"
	"github.com/DubyaFM/quartermaster/internal/storage/memory"
	"github.com/DubyaFM/quartermaster/internal/storage/textfile"
	logpkg "github.com/DubyaFM/quartermaster/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger

	// Ephemeral backs every log with in-memory resources instead of files.
	Ephemeral bool
}

// Runtime wires configuration, the campaign registry, and one log store per
// campaign for a single process.
type Runtime struct {
	config   cfgpkg.Config
	log      logpkg.Logger
	registry *campaign.Registry

	mu        sync.Mutex
	stores    map[string]*logstore.Store
	ephemeral bool
}

// Open builds a Runtime. No campaign data is touched until OpenLog.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	registry, err := campaign.NewRegistry(opts.Config)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		config:    opts.Config,
		log:       logger,
		registry:  registry,
		stores:    map[string]*logstore.Store{},
		ephemeral: opts.Ephemeral,
	}, nil
}

// Close releases every open store's watch subscription.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for id, s := range r.stores {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", id, err)
		}
	}
	r.stores = map[string]*logstore.Store{}
	return first
}

// CheckHealth verifies the data directory is usable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ephemeral {
		return nil
	}
	if err := os.MkdirAll(r.config.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir %s: %w", r.config.DataDir, err)
	}
	return nil
}

// EnsureCampaign registers a campaign id if absent.
func (r *Runtime) EnsureCampaign(id string) (campaign.Meta, error) {
	return r.registry.Ensure(id)
}

// OpenLog returns the store for a campaign's activity log, opening (and
// optionally watching) it on first use. Stores are cached per campaign so
// all operations in this process serialize through one instance.
func (r *Runtime) OpenLog(id string) (*logstore.Store, error) {
	meta, err := r.registry.Ensure(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[id]; ok {
		return s, nil
	}

	var res storage.Resource
	if r.ephemeral {
		res = memory.New()
	} else {
		res = textfile.Open(meta.LogPath)
	}
	s := logstore.Open(res, r.log.With(logpkg.F("campaign", id)))
	if r.config.Watch && !r.ephemeral {
		if err := s.Watch(); err != nil {
			return nil, fmt.Errorf("watch %s: %w", meta.LogPath, err)
		}
	}
	r.stores[id] = s
	return s, nil
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
