package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"daneybil/internal/chat"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sessionAt(id, text string, ts time.Time) chat.Session {
	s := chat.NewSession(id)
	s.Messages = append(s.Messages, chat.Message{Role: chat.RoleUser, Text: text, Timestamp: ts})
	s.Title = chat.InferTitle(s.Messages)
	s.LastUpdated = ts
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sessions := []chat.Session{
		sessionAt("s2", "audit the presale", base.Add(time.Hour)),
		sessionAt("s1", "deploy token contract", base),
	}
	if err := store.SaveAll(sessions); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len=%d, want 2", len(loaded))
	}
	if loaded[0].ID != "s2" || loaded[1].ID != "s1" {
		t.Fatalf("recency order lost: %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if len(loaded[1].Messages) != 2 || loaded[1].Messages[0].Text != chat.SeedGreeting {
		t.Fatalf("messages lost: %+v", loaded[1].Messages)
	}
}

func TestSQLiteStore_EmptyDatabase(t *testing.T) {
	store := newTestStore(t)
	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("len=%d, want 0", len(loaded))
	}
}

func TestSQLiteStore_MalformedBlob(t *testing.T) {
	store := newTestStore(t)

	// 手工写入坏 blob / Hand-write a corrupt blob
	_, err := store.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		sessionsKey, "{broken", nowUTC())
	if err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll should tolerate corruption: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("len=%d, want 0", len(loaded))
	}
}

func TestSQLiteStore_SaveAllReplaces(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	if err := store.SaveAll([]chat.Session{sessionAt("a", "one", now)}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := store.SaveAll([]chat.Session{sessionAt("b", "two", now)}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count); err != nil && err != sql.ErrNoRows {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("kv rows=%d, want 1 (single fixed key)", count)
	}

	loaded, _ := store.LoadAll()
	if len(loaded) != 1 || loaded[0].ID != "b" {
		t.Fatalf("replacement failed: %+v", loaded)
	}
}
