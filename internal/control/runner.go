// Package control wires the collaborators together and drives the poll loop.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ozonms/fbosync/internal/core/config"
	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/health"
	"github.com/ozonms/fbosync/internal/infra/moysklad"
	"github.com/ozonms/fbosync/internal/infra/ozon"
	"github.com/ozonms/fbosync/internal/infra/state"
	"github.com/ozonms/fbosync/internal/sync"
)

// Runner owns the reconciliation lifecycle: one engine, one durable state
// store, one health server, one poll loop.
type Runner struct {
	cfg          *config.AppConfig
	engine       *sync.Engine
	store        state.Store
	monitor      *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// NewRunner creates a Runner with all dependencies initialized.
func NewRunner(cfg *config.AppConfig, log *slog.Logger) (*Runner, error) {
	// 1. Durable state
	store, err := NewStateStore(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("failed to init state store: %w", err)
	}

	// 2. API clients
	source := ozon.NewClient(ozon.Config{
		BaseURL:  cfg.Ozon.BaseURL,
		ClientID: cfg.Ozon.ClientID,
		APIKey:   cfg.Ozon.APIKey,
		RPS:      cfg.Ozon.RPS,
		Retry:    cfg.Ozon.Retry,
	})
	erp := moysklad.NewClient(moysklad.Config{
		BaseURL:        cfg.MoySklad.BaseURL,
		Token:          cfg.MoySklad.Token,
		RPS:            cfg.MoySklad.RPS,
		Retry:          cfg.MoySklad.Retry,
		OrganizationID: cfg.Sync.Organization,
		AgentID:        cfg.Sync.Agent,
		StoreID:        cfg.Sync.Store,
		SourceStoreID:  cfg.Sync.SourceStore,
		SalesChannelID: cfg.Sync.SalesChannel,
		OrderStateID:   cfg.Sync.OrderState,
	})

	// 3. Engine
	minDate, err := cfg.Sync.MinDateTime()
	if err != nil {
		return nil, fmt.Errorf("invalid sync.min_date: %w", err)
	}
	resolver := sync.NewResolver(erp, cfg.MoySklad.SalePriceType, log)
	engine := sync.New(source, erp, resolver, sync.Config{
		MinDate:      minDate,
		LookbackDays: cfg.Sync.LookbackDays,
		DryRun:       cfg.Sync.DryRun,
	}, log)

	// 4. Health
	monitor := health.NewMonitor(cfg.PollInterval)
	var healthServer *health.Server
	if cfg.Server.Port > 0 {
		healthServer = health.NewServer(monitor, cfg.Server.Port)
	}

	return &Runner{
		cfg:          cfg,
		engine:       engine,
		store:        store,
		monitor:      monitor,
		healthServer: healthServer,
		log:          log,
	}, nil
}

// NewStateStore selects the configured backend. File is the default.
func NewStateStore(cfg config.StateConfig) (state.Store, error) {
	switch cfg.Backend {
	case "postgres":
		return state.NewPostgresStore(context.Background(), cfg.Postgres)
	case "redis":
		return state.NewRedisStore(cfg.Redis)
	default:
		return state.NewFileStore(cfg.File.Path)
	}
}

// Run loads the persisted memory and reconciles until ctx is cancelled. A
// pass failing is recorded and logged, never fatal; the memory is flushed
// after every pass and once more on the way out.
func (r *Runner) Run(ctx context.Context) error {
	mem, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	r.log.Info("state loaded", "orders", mem.Len(), "backend", r.backendName())

	if r.healthServer != nil {
		go func() {
			if err := r.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.log.Error("health server failed", "error", err)
			}
		}()
	}

	r.pass(ctx, mem)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush(mem)
			return nil
		case <-ticker.C:
			r.pass(ctx, mem)
		}
	}
}

// RunOnce performs a single pass and persists the result.
func (r *Runner) RunOnce(ctx context.Context) error {
	mem, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	r.log.Info("state loaded", "orders", mem.Len(), "backend", r.backendName())

	_, passErr := r.engine.RunPass(ctx, mem)
	r.monitor.RecordPass(passErr, mem.Len())
	r.flush(mem)
	return passErr
}

// Stop shuts down the health server and closes the state store.
func (r *Runner) Stop(ctx context.Context) error {
	if r.healthServer != nil {
		if err := r.healthServer.Stop(ctx); err != nil {
			r.log.Warn("failed to stop health server", "error", err)
		}
	}
	return r.store.Close()
}

func (r *Runner) pass(ctx context.Context, mem *domain.Memory) {
	_, err := r.engine.RunPass(ctx, mem)
	if err != nil {
		r.log.Error("pass failed", "error", err)
	}
	r.monitor.RecordPass(err, mem.Len())
	r.flush(mem)
}

// flush persists the memory on a fresh context so shutdown cancellation
// cannot lose state.
func (r *Runner) flush(mem *domain.Memory) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, mem); err != nil {
		r.log.Error("failed to persist state", "error", err)
	}
}

func (r *Runner) backendName() string {
	if r.cfg.State.Backend == "" {
		return "file"
	}
	return r.cfg.State.Backend
}
