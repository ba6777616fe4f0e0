package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteStore persists entries in a single table. Tags are stored
// comma-joined; the memory API only needs list/delete, not tag queries.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = &SQLiteStore{}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite memory store: empty dsn")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS memories_by_created ON memories(created_at_ms DESC);`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return errors.Wrap(err, "sqlite memory store: migrate")
		}
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, content string, tags []string) (Entry, error) {
	entry := newEntry(content, tags)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories(id, content, tags, created_at_ms)
		VALUES(?, ?, ?, ?)
	`, entry.ID, entry.Content, strings.Join(tags, ","), entry.CreatedAt.UnixMilli())
	if err != nil {
		return Entry{}, errors.Wrap(err, "sqlite memory store: insert")
	}
	return entry, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, tags, created_at_ms
		FROM memories
		ORDER BY created_at_ms DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite memory store: query")
	}
	defer func() { _ = rows.Close() }()

	items := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			tags      string
			createdMs int64
		)
		if err := rows.Scan(&e.ID, &e.Content, &tags, &createdMs); err != nil {
			return nil, err
		}
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		e.CreatedAt = time.UnixMilli(createdMs).UTC()
		items = append(items, e)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "sqlite memory store: delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return Stats{}, errors.Wrap(err, "sqlite memory store: count")
	}
	return Stats{Backend: "sqlite", Count: count}, nil
}

// DSNForFile builds a DSN with the pragmas the daemon wants.
func DSNForFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("sqlite memory store: empty path")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path), nil
}
