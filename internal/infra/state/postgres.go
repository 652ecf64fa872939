package state

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql

	"github.com/ozonms/fbosync/internal/core/domain"
)

// PostgresConfig holds PostgreSQL backend configuration.
type PostgresConfig struct {
	URL           string `yaml:"url"`
	MaxConns      int    `yaml:"max_conns"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// PostgresStore keeps the memory in the supply_state table, one row per
// tracked order.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a pooled connection and applies pending migrations.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(10)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	dir := cfg.MigrationsDir
	if dir == "" {
		dir = "migrations"
	}
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	// Goose needs the raw *sql.DB that sqlx wraps.
	if err := goose.Up(db.DB, dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

type stateRow struct {
	OrderID           string    `db:"order_id"`
	OrderNumber       string    `db:"order_number"`
	State             string    `db:"state"`
	CustomerOrderID   string    `db:"customerorder_id"`
	CustomerOrderHref string    `db:"customerorder_href"`
	MoveID            string    `db:"move_id"`
	MoveHref          string    `db:"move_href"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func toRow(id string, e domain.MemoryEntry) stateRow {
	row := stateRow{
		OrderID:     id,
		OrderNumber: e.OrderNumber,
		State:       string(e.State),
		UpdatedAt:   e.UpdatedAt,
	}
	if e.CustomerOrder != nil {
		row.CustomerOrderID = e.CustomerOrder.ID
		row.CustomerOrderHref = e.CustomerOrder.Href
	}
	if e.Move != nil {
		row.MoveID = e.Move.ID
		row.MoveHref = e.Move.Href
	}
	return row
}

func (r stateRow) entry() domain.MemoryEntry {
	e := domain.MemoryEntry{
		OrderNumber: r.OrderNumber,
		State:       domain.OrderState(r.State),
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CustomerOrderID != "" || r.CustomerOrderHref != "" {
		e.CustomerOrder = &domain.DocRef{ID: r.CustomerOrderID, Href: r.CustomerOrderHref}
	}
	if r.MoveID != "" || r.MoveHref != "" {
		e.Move = &domain.DocRef{ID: r.MoveID, Href: r.MoveHref}
	}
	return e
}

// Load reads every row into memory.
func (s *PostgresStore) Load(ctx context.Context) (*domain.Memory, error) {
	var rows []stateRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT order_id, order_number, state,
		        customerorder_id, customerorder_href,
		        move_id, move_href, updated_at
		 FROM supply_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	mem := domain.NewMemory()
	for _, r := range rows {
		mem.Put(r.OrderID, r.entry())
	}
	return mem, nil
}

const upsertState = `
INSERT INTO supply_state (
	order_id, order_number, state,
	customerorder_id, customerorder_href,
	move_id, move_href, updated_at
) VALUES (
	:order_id, :order_number, :state,
	:customerorder_id, :customerorder_href,
	:move_id, :move_href, :updated_at
)
ON CONFLICT (order_id) DO UPDATE SET
	order_number       = EXCLUDED.order_number,
	state              = EXCLUDED.state,
	customerorder_id   = EXCLUDED.customerorder_id,
	customerorder_href = EXCLUDED.customerorder_href,
	move_id            = EXCLUDED.move_id,
	move_href          = EXCLUDED.move_href,
	updated_at         = EXCLUDED.updated_at`

// Save upserts every tracked order and prunes rows for orders no longer in
// memory, in one transaction.
func (s *PostgresStore) Save(ctx context.Context, mem *domain.Memory) error {
	snap := mem.Snapshot()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(snap))
	for id, entry := range snap {
		ids = append(ids, id)
		if _, err := tx.NamedExecContext(ctx, upsertState, toRow(id, entry)); err != nil {
			return fmt.Errorf("failed to upsert order %s: %w", id, err)
		}
	}

	if len(ids) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM supply_state`); err != nil {
			return fmt.Errorf("failed to prune state: %w", err)
		}
	} else {
		query, args, err := sqlx.In(`DELETE FROM supply_state WHERE order_id NOT IN (?)`, ids)
		if err != nil {
			return fmt.Errorf("failed to build prune query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to prune state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
