package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedUsers creates a users/posts schema with a few rows.
func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	err := s.Exec(context.Background(),
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT, score REAL)`,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id), title TEXT)`,
		`INSERT INTO users (id, name, email, score) VALUES (1, 'Ann', 'ann@example.com', 1.5), (2, 'Bo', NULL, 2)`,
		`INSERT INTO posts (id, user_id, title) VALUES (10, 1, 'hello'), (11, 1, 'again')`,
	)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}
