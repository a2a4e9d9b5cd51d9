package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/fieldsites/sitebuilder/internal/config"
)

// MappingStore persists host to business mappings in SQLite, feeding the
// resolver snapshot at startup and on reload.
type MappingStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewMappingStore opens (and initializes) the mapping database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewMappingStore(dbPath string) (*MappingStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &MappingStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *MappingStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS host_mappings (
		host TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (unixepoch())
	);
	CREATE INDEX IF NOT EXISTS idx_business_id ON host_mappings(business_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or replaces a mapping. The host is normalized first so the
// store never holds keys the resolver cannot match.
func (s *MappingStore) Put(ctx context.Context, host, businessID string) error {
	normalized, err := NormalizeHost(host)
	if err != nil {
		return err
	}
	if businessID == "" {
		return fmt.Errorf("business_id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO host_mappings (host, business_id, updated_at) VALUES (?, ?, unixepoch()) ON CONFLICT(host) DO UPDATE SET business_id = excluded.business_id, updated_at = unixepoch()",
		normalized, businessID,
	)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

// Delete removes a mapping. Deleting an absent host is not an error.
func (s *MappingStore) Delete(ctx context.Context, host string) error {
	normalized, err := NormalizeHost(host)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM host_mappings WHERE host = ?", normalized); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}

// All returns the complete mapping table for the resolver snapshot.
func (s *MappingStore) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT host, business_id FROM host_mappings")
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var host, businessID string
		if err := rows.Scan(&host, &businessID); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mapping[host] = businessID
	}
	return mapping, rows.Err()
}

// Close closes the underlying database.
func (s *MappingStore) Close() error {
	return s.db.Close()
}

// LoadMapping assembles the full host mapping for a resolver snapshot:
// rows from the optional sqlite mapping store, overlaid with the inline
// config entries (inline wins on conflict).
func LoadMapping(ctx context.Context, cfg config.TenantsConfig) (map[string]string, error) {
	merged := make(map[string]string, len(cfg.Mapping))
	if cfg.MappingDB != "" {
		store, err := NewMappingStore(cfg.MappingDB)
		if err != nil {
			return nil, fmt.Errorf("open mapping store: %w", err)
		}
		defer store.Close()
		stored, err := store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored mappings: %w", err)
		}
		for host, id := range stored {
			merged[host] = id
		}
	}
	for host, id := range cfg.Mapping {
		merged[host] = id
	}
	return merged, nil
}
