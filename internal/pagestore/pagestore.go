// Package pagestore persists generated page bundles in SQLite, keyed by
// business and route. The store is a cache of derived output: every bundle
// is re-derivable from the backend plus the trade tables, so losing the
// database is an inconvenience, not data loss.
package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fieldsites/sitebuilder/internal/errors"
)

// Bundle is one stored page: the route it serves plus the generated JSON
// payload handed to the renderer.
type Bundle struct {
	BusinessID  string          `json:"business_id"`
	Route       string          `json:"route"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Store is the SQLite-backed bundle store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and initializes) the bundle database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS page_bundles (
		business_id TEXT NOT NULL,
		route TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload BLOB NOT NULL,
		generated_at INTEGER NOT NULL,
		PRIMARY KEY (business_id, route)
	);
	CREATE INDEX IF NOT EXISTS idx_bundle_kind ON page_bundles(business_id, kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns one bundle, or (nil, nil) when the route has no bundle.
func (s *Store) Get(ctx context.Context, businessID, route string) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT business_id, route, kind, payload, generated_at FROM page_bundles WHERE business_id = ? AND route = ?",
		businessID, route,
	)

	var b Bundle
	var payload []byte
	var generatedAt int64
	if err := row.Scan(&b.BusinessID, &b.Route, &b.Kind, &payload, &generatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.StoreError("get bundle", err)
	}
	b.Payload = payload
	b.GeneratedAt = time.Unix(generatedAt, 0)
	return &b, nil
}

// Routes lists the stored routes for a business, ordered.
func (s *Store) Routes(ctx context.Context, businessID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT route FROM page_bundles WHERE business_id = ? ORDER BY route",
		businessID,
	)
	if err != nil {
		return nil, errors.StoreError("list routes", err)
	}
	defer rows.Close()

	var routes []string
	for rows.Next() {
		var route string
		if err := rows.Scan(&route); err != nil {
			return nil, errors.StoreError("scan route", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// ReplaceBusiness swaps the business's full route surface for the given
// bundles in one transaction. Readers never observe a half-written surface:
// either the previous generation or the new one, and removed catalog entries
// leave no stale pages behind. An empty bundle list clears the business.
func (s *Store) ReplaceBusiness(ctx context.Context, businessID string, bundles []Bundle) error {
	if businessID == "" {
		return errors.ValidationFailed("business_id", "must not be empty")
	}
	now := time.Now()
	for i := range bundles {
		if bundles[i].BusinessID == "" {
			bundles[i].BusinessID = businessID
		}
		if bundles[i].BusinessID != businessID || bundles[i].Route == "" {
			return errors.ValidationFailed("bundle", "business_id must match and route is required")
		}
		if bundles[i].GeneratedAt.IsZero() {
			bundles[i].GeneratedAt = now
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StoreError("begin replace", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM page_bundles WHERE business_id = ?", businessID); err != nil {
		return errors.StoreError("clear business bundles", err)
	}
	for _, b := range bundles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page_bundles (business_id, route, kind, payload, generated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			b.BusinessID, b.Route, b.Kind, []byte(b.Payload), b.GeneratedAt.Unix(),
		); err != nil {
			return errors.StoreError("insert bundle", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.StoreError("commit replace", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
