// Package eventlog records committed ledger events in a SQL database so
// they can be queried after the process restarts.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/LeJamon/goFST/internal/core/types"
	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultLimit caps Query results when the filter sets no limit.
const DefaultLimit = 100

var (
	ErrUnknownDriver = errors.New("unknown event log driver")
	ErrClosed        = errors.New("event log closed")
)

// Config configures an event log.
type Config struct {
	Driver string
	DSN    string
	Logger *slog.Logger
}

// Record is a stored event with its sequence number.
type Record struct {
	ID    int64    `json:"id"`
	Event tx.Event `json:"event"`
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Type    tx.EventType
	Account types.Address
	TxID    string
	AfterID int64
	Limit   int
}

// Log is an append-only SQL event table.
type Log struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Log, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// An in-memory database exists per connection.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	l := &Log{
		db:     db,
		driver: cfg.Driver,
		logger: cfg.Logger.With("component", "eventlog"),
	}
	if err := l.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.logger.Info("event log opened", "driver", cfg.Driver)
	return l, nil
}

func (l *Log) migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if l.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id        ` + id + `,
			tx_id     TEXT NOT NULL,
			type      TEXT NOT NULL,
			time_ns   BIGINT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr   TEXT NOT NULL,
			amount    TEXT NOT NULL,
			payload   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_tx ON events(tx_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_from ON events(from_addr)`,
		`CREATE INDEX IF NOT EXISTS idx_events_to ON events(to_addr)`,
	}
	for _, s := range stmts {
		if _, err := l.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter for the driver.
func (l *Log) placeholder(n int) string {
	if l.driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Append stores events in one transaction.
func (l *Log) Append(ctx context.Context, events ...tx.Event) error {
	if l.db == nil {
		return ErrClosed
	}
	if len(events) == 0 {
		return nil
	}

	dbtx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbtx.Rollback() //nolint:errcheck

	query := "INSERT INTO events (tx_id, type, time_ns, from_addr, to_addr, amount, payload) VALUES ("
	for i := 1; i <= 7; i++ {
		if i > 1 {
			query += ", "
		}
		query += l.placeholder(i)
	}
	query += ")"

	stmt, err := dbtx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", ev.Type, err)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.TxID, string(ev.Type), ev.Time.UnixNano(),
			ev.From.String(), ev.To.String(), ev.Amount.String(), string(payload),
		); err != nil {
			return fmt.Errorf("insert %s event: %w", ev.Type, err)
		}
	}
	return dbtx.Commit()
}

// Hooks returns engine hooks that append every committed transaction's
// events. Write failures are logged; they never affect the ledger.
func (l *Log) Hooks() *tx.Hooks {
	return &tx.Hooks{
		OnApplied: func(res tx.ApplyResult) {
			if !res.Applied || len(res.Events) == 0 {
				return
			}
			if err := l.Append(context.Background(), res.Events...); err != nil {
				l.logger.Error("event log append failed", "tx", res.ID, "error", err)
			}
		},
	}
}

// Query returns events matching f in insertion order.
func (l *Log) Query(ctx context.Context, f Filter) ([]Record, error) {
	if l.db == nil {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "#", l.placeholder(len(args)), 1)
		}
		where = append(where, cond)
	}
	if f.Type != "" {
		add("type = #", string(f.Type))
	}
	if !f.Account.IsZero() {
		addr := f.Account.String()
		add("(from_addr = # OR to_addr = #)", addr, addr)
	}
	if f.TxID != "" {
		add("tx_id = #", f.TxID)
	}
	if f.AfterID > 0 {
		add("id > #", f.AfterID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := "SELECT id, payload FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id LIMIT " + strconv.Itoa(limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			payload string
		)
		if err := rows.Scan(&rec.ID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &rec.Event); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored events.
func (l *Log) Count(ctx context.Context) (int64, error) {
	if l.db == nil {
		return 0, ErrClosed
	}
	var n int64
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// Close closes the database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
