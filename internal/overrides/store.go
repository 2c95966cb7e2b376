package overrides

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/Omgitskie/gsc-dashboard/internal/classify"
)

// Store persists manual query classifications in the classifications table.
// It is the adapter between the classifier (which wants a plain map) and the
// database; read failures degrade to an empty map so ingestion can proceed
// rules-only.
type Store struct {
	db      *sql.DB
	onWrite func()
}

// Entry is one override row. Segment may be blank for rows staged by
// ExportBlank that have not been filled in yet.
type Entry struct {
	Query   string
	Segment classify.Segment
	Store   string
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OnWrite registers a hook fired after every successful mutation. The ingest
// layer uses it to drop cached fetches so overrides apply immediately.
func (s *Store) OnWrite(fn func()) {
	s.onWrite = fn
}

// LoadAll returns the full override table keyed by exact query text. Rows
// with a blank segment are staging rows and are skipped. Any error yields an
// empty map and a warning; it is never fatal to classification.
func (s *Store) LoadAll(ctx context.Context) map[string]classify.Override {
	out := make(map[string]classify.Override)
	rows, err := s.db.QueryContext(ctx, `SELECT query, segment, store FROM classifications`)
	if err != nil {
		log.Printf("overrides: load failed, classifying rules-only: %v", err)
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var query, segment, store string
		if err := rows.Scan(&query, &segment, &store); err != nil {
			continue
		}
		if strings.TrimSpace(segment) == "" {
			continue
		}
		out[query] = classify.Override{Segment: classify.Segment(segment), Store: store}
	}
	if err := rows.Err(); err != nil {
		log.Printf("overrides: load interrupted: %v", err)
	}
	return out
}

// Upsert creates or replaces the override for query. Last write wins; the
// database resolves ordering between concurrent callers.
func (s *Store) Upsert(ctx context.Context, query string, segment classify.Segment, store string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO classifications (query, segment, store) VALUES (?,?,?)
		ON CONFLICT(query) DO UPDATE SET segment=excluded.segment, store=excluded.store,
		updated_at=strftime('%Y-%m-%dT%H:%M:%SZ','now')`, query, string(segment), store)
	if err != nil {
		log.Printf("overrides: upsert %q failed: %v", query, err)
		return err
	}
	s.notify()
	return nil
}

// Remove deletes the override for query, reporting whether a row existed.
func (s *Store) Remove(ctx context.Context, query string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM classifications WHERE query=?`, query)
	if err != nil {
		log.Printf("overrides: remove %q failed: %v", query, err)
		return false, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.notify()
	}
	return n > 0, nil
}

// ExportBlank appends the given queries with blank segment/store, skipping
// any query already present. It backs the bulk-classification workflow:
// stage unclassified queries, fill segments in offline, re-ingest.
func (s *Store) ExportBlank(ctx context.Context, queries []string) (int, error) {
	appended := 0
	for _, q := range queries {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO classifications (query, segment, store) VALUES (?,'','')
			 ON CONFLICT(query) DO NOTHING`, q)
		if err != nil {
			log.Printf("overrides: export %q failed: %v", q, err)
			return appended, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			appended++
		}
	}
	if appended > 0 {
		s.notify()
	}
	return appended, nil
}

// Entries returns all filled-in overrides ordered by segment then query,
// for the admin listing and CSV download.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, segment, store FROM classifications WHERE segment != '' ORDER BY segment, query`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var seg string
		if err := rows.Scan(&e.Query, &seg, &e.Store); err != nil {
			return nil, err
		}
		e.Segment = classify.Segment(seg)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of filled-in overrides.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classifications WHERE segment != ''`).Scan(&n)
	return n, err
}

func (s *Store) notify() {
	if s.onWrite != nil {
		s.onWrite()
	}
}
