// Package sqlitestore persists root item metadata (aliases, open counts and
// favorites) in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store implements root.MetadataStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ root.MetadataStore = (*Store)(nil)

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	log.Debugf("Opened metadata store at %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Store) LoadAll(ctx context.Context) (map[string]root.ItemMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, alias, open_count, last_opened_at, favorite FROM item_metadata`)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]root.ItemMetadata)
	for rows.Next() {
		var (
			id       string
			md       root.ItemMetadata
			openedAt int64
		)
		if err := rows.Scan(&id, &md.Alias, &md.OpenCount, &openedAt, &md.Favorite); err != nil {
			return nil, fmt.Errorf("scanning metadata: %w", err)
		}
		md.LastOpenedAt = fromUnix(openedAt)
		out[id] = md
	}
	return out, rows.Err()
}

func (s *Store) SetAlias(ctx context.Context, id, alias string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_metadata (id, alias) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET alias = excluded.alias`, id, alias)
	if err != nil {
		return fmt.Errorf("setting alias of %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_metadata (id, favorite) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET favorite = excluded.favorite`, id, favorite)
	if err != nil {
		return fmt.Errorf("setting favorite of %s: %w", id, err)
	}
	return nil
}

func (s *Store) IncrementOpenCount(ctx context.Context, id string, at time.Time) (root.ItemMetadata, error) {
	var (
		md       root.ItemMetadata
		openedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO item_metadata (id, open_count, last_opened_at) VALUES (?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			open_count = open_count + 1,
			last_opened_at = excluded.last_opened_at
		RETURNING alias, open_count, last_opened_at, favorite`,
		id, toUnix(at),
	).Scan(&md.Alias, &md.OpenCount, &openedAt, &md.Favorite)
	if err != nil {
		return root.ItemMetadata{}, fmt.Errorf("incrementing open count of %s: %w", id, err)
	}
	md.LastOpenedAt = fromUnix(openedAt)
	return md, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
