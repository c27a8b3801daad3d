package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lordjav/use-your-brains/utils"
)

// Logical keys. The uyb_ prefix predates this implementation; keeping it
// means existing exports of the stored JSON stay readable.
const (
	KeyStatistics         = "uyb_statistics"
	KeyQuestionnaireStats = "uyb_questionnaire_stats"
	KeyCachedData         = "uyb_cached_questionnaires"
	KeyCacheTimestamp     = "uyb_cache_timestamp"
	KeyCacheVersion       = "uyb_cache_version"
)

// Store is the key-value persistence boundary: JSON-serializable values
// under fixed logical keys.
type Store interface {
	// Get unmarshals the value under key into out. The bool reports
	// whether the key existed.
	Get(key string, out interface{}) (bool, error)
	Set(key string, value interface{}) error
	Remove(key string) error
	Close() error
}

// SQLiteStore keeps the key-value pairs in a single sqlite table.
type SQLiteStore struct {
	*sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	utils.LogStore("Opening key-value store at: %s", path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		utils.LogError("Failed to open store: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utils.LogError("Failed to ping store: %v", err)
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	utils.LogStore("Key-value store initialized")
	return &SQLiteStore{db}, nil
}

func (s *SQLiteStore) Get(key string, out interface{}) (bool, error) {
	start := time.Now()

	var value string
	err := s.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		utils.LogError("Get(%s) failed: %v", key, err)
		return false, err
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		utils.LogError("Get(%s): stored value is not valid JSON: %v", key, err)
		return false, err
	}

	utils.LogStore("Get(%s) completed in %v", key, time.Since(start))
	return true, nil
}

func (s *SQLiteStore) Set(key string, value interface{}) error {
	start := time.Now()

	encoded, err := json.Marshal(value)
	if err != nil {
		utils.LogError("Set(%s): failed to encode value: %v", key, err)
		return err
	}

	_, err = s.Exec(`
        INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
    `, key, string(encoded))
	if err != nil {
		utils.LogError("Set(%s) failed: %v (%v)", key, err, time.Since(start))
		return err
	}

	utils.LogStore("Set(%s): %d bytes in %v", key, len(encoded), time.Since(start))
	return nil
}

func (s *SQLiteStore) Remove(key string) error {
	_, err := s.Exec("DELETE FROM kv_store WHERE key = ?", key)
	if err != nil {
		utils.LogError("Remove(%s) failed: %v", key, err)
		return err
	}
	utils.LogStore("Remove(%s) completed", key)
	return nil
}
