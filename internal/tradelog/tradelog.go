// Package tradelog provides the durable commit log of completed
// transactions. SQLite with WAL mode; writes are idempotent on the trade
// token so a retried commit record never double-counts.
package tradelog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tradepost/internal/world"
)

//go:embed schema.sql
var schemaSQL string

// Trade is one committed transaction.
type Trade struct {
	Token       string
	CommittedAt time.Time
	ActorID     uuid.UUID
	OwnerID     uuid.UUID
	ShopKey     string
	Item        world.ItemType
	Bundle      int
	Direction   string // "buy" or "sell"
	Gross       float64
	Tax         float64
	Net         float64
}

// Log is the SQLite-backed trade history.
type Log struct {
	db *sql.DB
}

// Open creates or opens the trade log at path and applies the schema.
//
// The database is configured with WAL mode for concurrent reads, NORMAL
// synchronous mode, a 5-second busy timeout, and a single-writer
// connection pool to avoid SQLITE_BUSY.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trade log: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trade log schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts one committed trade. Duplicate tokens are silently
// ignored (ON CONFLICT DO NOTHING) for idempotency.
func (l *Log) Record(ctx context.Context, t Trade) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO trades
		(token, committed_at, actor_id, owner_id, shop_key, item, bundle, direction, gross, tax, net)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		t.Token,
		t.CommittedAt.UTC().Format(time.RFC3339Nano),
		t.ActorID.String(),
		t.OwnerID.String(),
		t.ShopKey,
		string(t.Item),
		t.Bundle,
		t.Direction,
		t.Gross,
		t.Tax,
		t.Net,
	)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", t.Token, err)
	}
	return nil
}

// ListByShop returns trades against one shop, newest first.
func (l *Log) ListByShop(ctx context.Context, shopKey string, limit int) ([]Trade, error) {
	return l.list(ctx, `
		SELECT token, committed_at, actor_id, owner_id, shop_key, item, bundle, direction, gross, tax, net
		FROM trades WHERE shop_key = ? ORDER BY committed_at DESC LIMIT ?
	`, shopKey, limit)
}

// ListByActor returns trades initiated by one actor, newest first.
func (l *Log) ListByActor(ctx context.Context, actor uuid.UUID, limit int) ([]Trade, error) {
	return l.list(ctx, `
		SELECT token, committed_at, actor_id, owner_id, shop_key, item, bundle, direction, gross, tax, net
		FROM trades WHERE actor_id = ? ORDER BY committed_at DESC LIMIT ?
	`, actor.String(), limit)
}

func (l *Log) list(ctx context.Context, query string, args ...any) ([]Trade, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var committedAt, actorID, ownerID, item string
		if err := rows.Scan(&t.Token, &committedAt, &actorID, &ownerID,
			&t.ShopKey, &item, &t.Bundle, &t.Direction, &t.Gross, &t.Tax, &t.Net); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if t.CommittedAt, err = time.Parse(time.RFC3339Nano, committedAt); err != nil {
			return nil, fmt.Errorf("parse trade time %q: %w", committedAt, err)
		}
		if t.ActorID, err = uuid.Parse(actorID); err != nil {
			return nil, fmt.Errorf("parse actor id %q: %w", actorID, err)
		}
		if t.OwnerID, err = uuid.Parse(ownerID); err != nil {
			return nil, fmt.Errorf("parse owner id %q: %w", ownerID, err)
		}
		t.Item = world.ItemType(item)
		out = append(out, t)
	}
	return out, rows.Err()
}
