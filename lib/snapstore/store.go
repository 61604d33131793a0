// Package snapstore persists the processed scrape outputs as named JSON
// blobs in sqlite. a snapshot is written once per build and read once at
// dashboard startup, so there is no update or delete surface beyond the
// upsert.
package snapstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/snapstore/db"
)

// logical blob names making up one snapshot.
const (
	KeyDeals    = "deals_processed"
	KeyLosses   = "losses_processed"
	KeyMetadata = "scrape_metadata"
)

// Metadata describes a capture run.
type Metadata struct {
	ScrapedAt time.Time `json:"scraped_at"`
	DealRows  int       `json:"deal_rows"`
	LossRows  int       `json:"loss_rows"`
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) (Store, error) {
	_, err := database.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return Store{}, fmt.Errorf("apply snapshot schema: %w", err)
	}
	return Store{db: database}, nil
}

// Open opens (or creates) a snapshot database at path.
func Open(path string) (Store, error) {
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	return NewStore(sqlite)
}

func (s Store) Close() error {
	return s.db.Close()
}

// Save JSON-encodes v and upserts it under name.
func (s Store) Save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO snapshots (name, data, updated) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated = excluded.updated`,
		name, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// Load decodes the blob stored under name into out. an absent name is not
// an error: it returns (false, nil) and leaves out untouched, so callers
// substitute their zero-valued shape.
func (s Store) Load(ctx context.Context, name string, out any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT data FROM snapshots WHERE name = ?`,
		name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return true, nil
}
