package database

import (
	"database/sql"
	"fmt"
)

// Optimize runs SQLite's PRAGMA optimize to refresh planner stats.
func (m *Manager) Optimize() error {
	return m.withConn("optimize", func(conn *sql.DB) error {
		if _, err := conn.Exec("PRAGMA optimize"); err != nil {
			return fmt.Errorf("failed to optimize database: %w", err)
		}
		return nil
	})
}

// Vacuum rebuilds the database file to reclaim unused space.
func (m *Manager) Vacuum() error {
	return m.withConn("vacuum", func(conn *sql.DB) error {
		if _, err := conn.Exec("VACUUM"); err != nil {
			return fmt.Errorf("failed to vacuum database: %w", err)
		}
		return nil
	})
}
