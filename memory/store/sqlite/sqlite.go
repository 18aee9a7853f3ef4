// Package sqlite implements memory.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/becomeliminal/teachable-go/memory"
)

// FileName is the database file created inside the store directory.
const FileName = "memos.db"

// Ensure Store implements memory.Store
var _ memory.Store = (*Store)(nil)

// Store is an append-only memo store backed by SQLite.
// Writes are serialised; every Put is committed with synchronous=FULL before
// it returns.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex // guards entropy and dims
	entropy io.Reader
	dims    int // 0 until the first memo is stored
}

// Open opens or creates the memo database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &memory.StorageError{Op: "open", Err: fmt.Errorf("create db dir: %w", err)}
	}

	dsn := filepath.Join(dir, FileName) +
		"?_pragma=journal_mode(wal)&_pragma=synchronous(full)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &memory.StorageError{Op: "open", Err: err}
	}
	// Single writer per store directory.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &memory.StorageError{Op: "migrate", Err: err}
	}
	if err := s.loadDims(); err != nil {
		db.Close()
		return nil, &memory.StorageError{Op: "open", Err: err}
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memos (
		seq         INTEGER PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		topic       TEXT NOT NULL,
		content     TEXT NOT NULL,
		embedding   BLOB NOT NULL,
		dims        INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) loadDims() error {
	var dims sql.NullInt64
	err := s.db.QueryRow(`SELECT dims FROM memos ORDER BY seq LIMIT 1`).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	s.dims = int(dims.Int64)
	return nil
}

// newID must be called with s.mu held.
func (s *Store) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Put appends memo and returns its ID.
func (s *Store) Put(ctx context.Context, memo memory.Memo) (string, error) {
	if len(memo.Embedding) == 0 {
		return "", &memory.StorageError{Op: "put", Err: errors.New("memo has no embedding")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dims != 0 && len(memo.Embedding) != s.dims {
		return "", &memory.StorageError{
			Op:  "put",
			Err: fmt.Errorf("%w: store has %d, memo has %d", memory.ErrDimensionMismatch, s.dims, len(memo.Embedding)),
		}
	}

	now := time.Now().UTC()
	if memo.CreatedAt.IsZero() {
		memo.CreatedAt = now
	}
	if memo.ID == "" {
		memo.ID = s.newID(memo.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memos (id, topic, content, embedding, dims, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memo.ID, memo.Topic, memo.Content, memory.EncodeVector(memo.Embedding), len(memo.Embedding),
		memo.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", &memory.StorageError{Op: "put", Err: fmt.Errorf("insert memo: %w", err)}
	}

	s.dims = len(memo.Embedding)
	return memo.ID, nil
}

// Get returns the memos with the given IDs in insertion order.
func (s *Store) Get(ctx context.Context, ids ...string) ([]memory.Memo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, topic, content, embedding, created_at
		FROM memos WHERE id IN (%s) ORDER BY seq`, placeholders)
	memos, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, &memory.StorageError{Op: "get", Err: err}
	}
	return memos, nil
}

// GetAll returns every memo in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]memory.Memo, error) {
	memos, err := s.query(ctx, `SELECT id, topic, content, embedding, created_at FROM memos ORDER BY seq`)
	if err != nil {
		return nil, &memory.StorageError{Op: "get all", Err: err}
	}
	return memos, nil
}

// Count returns the number of stored memos.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memos`).Scan(&n); err != nil {
		return 0, &memory.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Reset deletes every memo.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memos`); err != nil {
		return &memory.StorageError{Op: "reset", Err: err}
	}
	s.dims = 0
	return nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &memory.StorageError{Op: "close", Err: err}
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]memory.Memo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memos []memory.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, err
		}
		memos = append(memos, m)
	}
	return memos, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemo(row scanner) (memory.Memo, error) {
	var m memory.Memo
	var blob []byte
	var createdAt string

	if err := row.Scan(&m.ID, &m.Topic, &m.Content, &blob, &createdAt); err != nil {
		return m, err
	}

	vec, err := memory.DecodeVector(blob)
	if err != nil {
		return m, fmt.Errorf("memo %s: %w", m.ID, err)
	}
	m.Embedding = vec

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return m, fmt.Errorf("memo %s: parse created_at: %w", m.ID, err)
	}
	return m, nil
}
