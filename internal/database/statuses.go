package database

import (
	"database/sql"
	"fmt"
)

// Seeded status ids on a fresh store.
const (
	StatusPlanned    int64 = 1
	StatusInProgress int64 = 2
	StatusCompleted  int64 = 3
)

// Status is one entry of the project status catalog.
type Status struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListStatuses returns the status catalog ordered by id.
func (m *Manager) ListStatuses() ([]Status, error) {
	statuses := []Status{}
	err := m.withConn("list statuses", func(conn *sql.DB) error {
		rows, err := conn.Query("SELECT status_id, status_name FROM status ORDER BY status_id")
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var s Status
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				return fmt.Errorf("failed to scan status: %w", err)
			}
			statuses = append(statuses, s)
		}
		return rows.Err()
	})
	if err != nil {
		return []Status{}, err
	}
	return statuses, nil
}
