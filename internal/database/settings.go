package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saltyorg/projectdb/internal/logging"
)

// GetSetting retrieves a setting value by key. A missing key yields "".
func (m *Manager) GetSetting(key string) (string, error) {
	var value string
	err := m.withConn("get setting", func(conn *sql.DB) error {
		err := conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get setting %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores a setting value
func (m *Manager) SetSetting(key, value string) error {
	return m.withConn("set setting", func(conn *sql.DB) error {
		return setSetting(conn, key, value)
	})
}

func setSetting(q querier, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Default settings
var DefaultSettings = map[string]any{
	"log.level":            "info",
	"log.max_size_mb":      logging.DefaultMaxSizeMB,
	"log.max_backups":      logging.DefaultMaxBackups,
	"log.max_age_days":     logging.DefaultMaxAgeDays,
	"log.compress":         logging.DefaultCompress,
	"maintenance.schedule": "@daily",
	"maintenance.vacuum":   false,
}

// InitializeDefaults sets default values for settings that don't exist
func (m *Manager) InitializeDefaults() error {
	return m.transaction("initialize settings", func(tx *sql.Tx) error {
		for key, value := range DefaultSettings {
			var existing string
			err := tx.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&existing)
			if err == nil {
				continue
			}
			if err != sql.ErrNoRows {
				return fmt.Errorf("failed to get setting %s: %w", key, err)
			}
			if err := setSetting(tx, key, fmt.Sprint(value)); err != nil {
				return err
			}
		}
		return nil
	})
}
