// Package postgres persists leads and run summaries in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/lead-hunter/internal/crawler"
	"github.com/JakeFAU/lead-hunter/internal/leads"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable is used when no table name is configured.
const DefaultTable = "leads"

// rowsPerStatement keeps each INSERT well under the 65535 bind parameter limit.
const rowsPerStatement = 500

// Config controls the Postgres connection pool used for lead rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// LeadStore writes leads into <table> and run summaries into <table>_runs.
type LeadStore struct {
	pool  pool
	table string
}

// NewLeadStore connects to Postgres using cfg.
func NewLeadStore(ctx context.Context, cfg Config) (*LeadStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &LeadStore{pool: p, table: table}, nil
}

// NewLeadStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewLeadStoreWithPool(p pool, table string) (*LeadStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &LeadStore{pool: p, table: name}, nil
}

func tableName(raw string) (string, error) {
	if raw == "" {
		return DefaultTable, nil
	}
	if !validTableName.MatchString(raw) {
		return "", fmt.Errorf("invalid table name %q", raw)
	}
	return raw, nil
}

// Close releases the underlying pool resources.
func (s *LeadStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the lead and run tables when they do not exist yet.
func (s *LeadStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	run_id        TEXT        NOT NULL,
	kind          TEXT        NOT NULL,
	value         TEXT        NOT NULL,
	source_url    TEXT        NOT NULL,
	discovered_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, kind, value)
);
CREATE TABLE IF NOT EXISTS %[1]s_runs (
	run_id      TEXT        PRIMARY KEY,
	mode        TEXT        NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	sites       INTEGER     NOT NULL,
	pages       INTEGER     NOT NULL,
	emails      INTEGER     NOT NULL,
	phones      INTEGER     NOT NULL,
	canceled    BOOLEAN     NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// StoreLeads inserts every lead for runID in one transaction. Rows already present
// for the run are left untouched.
func (s *LeadStore) StoreLeads(ctx context.Context, runID string, records []leads.Lead) (err error) {
	if s == nil || s.pool == nil {
		return fmt.Errorf("lead store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	for start := 0; start < len(records); start += rowsPerStatement {
		end := min(start+rowsPerStatement, len(records))
		query, args := s.insertLeads(runID, records[start:end])
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert leads: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit leads: %w", err)
	}
	return nil
}

func (s *LeadStore) insertLeads(runID string, records []leads.Lead) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (run_id, kind, value, source_url, discovered_at) VALUES ", s.table)
	args := make([]any, 0, len(records)*5)
	for i, l := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, runID, string(l.Kind), l.Value, l.SourceURL, l.DiscoveredAt)
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args
}

// RecordRun upserts the run summary row.
func (s *LeadStore) RecordRun(ctx context.Context, summary crawler.RunSummary) error {
	if summary.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s_runs (run_id, mode, started_at, finished_at, sites, pages, emails, phones, canceled)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (run_id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	sites = EXCLUDED.sites,
	pages = EXCLUDED.pages,
	emails = EXCLUDED.emails,
	phones = EXCLUDED.phones,
	canceled = EXCLUDED.canceled`, s.table)
	_, err := s.pool.Exec(ctx, query,
		summary.RunID,
		string(summary.Mode),
		summary.StartedAt,
		summary.FinishedAt,
		summary.Sites,
		summary.PagesVisited,
		summary.Emails,
		summary.Phones,
		summary.Canceled,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
