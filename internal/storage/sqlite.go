package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"daneybil/internal/chat"

	_ "modernc.org/sqlite"
)

// sessionsKey 固定的集合键；整个会话集合存成一个 JSON blob
// sessionsKey is the fixed collection key; the whole session collection is one
// JSON blob
const sessionsKey = "chat_sessions"

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadAll 读取会话集合；blob 缺失或损坏都视为空集合，不视为错误
// LoadAll reads the session collection; a missing or corrupt blob is an empty
// collection, never an error
func (s *SQLiteStore) LoadAll() ([]chat.Session, error) {
	row := s.db.QueryRow("SELECT value FROM kv WHERE key=?", sessionsKey)

	var blob string
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	var sessions []chat.Session
	if err := json.Unmarshal([]byte(blob), &sessions); err != nil {
		// 损坏的 blob 等同冷启动 / A corrupt blob behaves like a cold start
		log.Warn("session blob is malformed, starting empty", "path", s.path, "err", err)
		return nil, nil
	}
	SortByRecency(sessions)
	return sessions, nil
}

// SaveAll 序列化并整体替换集合 blob
// SaveAll serializes and replaces the collection blob wholesale
func (s *SQLiteStore) SaveAll(sessions []chat.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		sessionsKey, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
