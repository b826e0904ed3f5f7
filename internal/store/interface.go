package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
)

// KV is the persistence contract the notebook core needs: a synchronous
// key-value store holding one JSON document per key. Lookup misses return
// (nil, nil); absence is a normal outcome, not an error.
type KV interface {
	Close() error
	ApplyMigrations(dir string) error

	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Keys of the persisted notebook state. Each key holds an independent JSON
// document; there are no cross-key transactions.
const (
	KeyUsers       = "bioplastic_users_v1"
	KeyExperiments = "bioplastic_experiments_v1"
	KeyPractices   = "bioplastic_practices_v1"
	KeyCounter     = "bioplastic_experiment_counter_v1"
	KeyAuditLog    = "audit_log"
)

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) Get(key string) ([]byte, error) {
	var value string
	query := s.Converter(`SELECT value FROM notebook_state WHERE key = ?`)

	err := s.DB.Get(&value, query, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *BaseStore) Set(key string, value []byte) error {
	query := s.Converter(`
		INSERT INTO notebook_state (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`)
	if _, err := s.DB.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *BaseStore) Delete(key string) error {
	query := s.Converter(`DELETE FROM notebook_state WHERE key = ?`)
	if _, err := s.DB.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
