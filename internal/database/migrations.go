package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// InitializeSchema creates every table that is missing and seeds the status
// catalog. Applied versions are recorded in schema_migrations, so running it
// again on an initialized store changes nothing. Stores created before
// version tracking existed are adopted as-is: tables are only created when
// absent and seed rows are only inserted when their label is missing.
func (m *Manager) InitializeSchema() error {
	log.Info().Str("path", m.path).Msg("Initializing database schema")

	return m.transaction("initialize schema", func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to create migrations table: %w", err)
		}

		var currentVersion int
		err = tx.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to get current migration version: %w", err)
		}

		log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

		for _, migration := range migrations {
			if migration.Version <= currentVersion {
				continue
			}

			log.Info().Int("version", migration.Version).Str("name", migration.Name).Msg("Applying migration")

			for i, stmt := range splitSQLStatements(migration.SQL) {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d statement %d failed: %w", migration.Version, i+1, err)
				}
			}

			if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}
		}

		return nil
	})
}

// AddPhotoColumn adds the optional photo path column to projects. The store
// rejects a duplicate column, so a second call fails with ErrStatement and
// leaves existing rows untouched.
func (m *Manager) AddPhotoColumn() error {
	return m.withConn("add photo column", func(conn *sql.DB) error {
		if _, err := conn.Exec("ALTER TABLE projects ADD COLUMN photo TEXT"); err != nil {
			return fmt.Errorf("failed to add photo column: %w", err)
		}
		log.Info().Msg("Added photo column to projects")
		return nil
	})
}

// HasPhotoColumn reports whether AddPhotoColumn has been applied.
func (m *Manager) HasPhotoColumn() (bool, error) {
	var exists bool
	err := m.withConn("check photo column", func(conn *sql.DB) error {
		var err error
		exists, err = columnExists(conn, "projects", "photo")
		return err
	})
	return exists, err
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// splitSQLStatements splits a SQL string into individual statements.
// Blank lines and "--" comment lines are dropped.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				user_id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_name TEXT NOT NULL,
				user_password TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS status (
				status_id INTEGER PRIMARY KEY AUTOINCREMENT,
				status_name TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS projects (
				project_id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER,
				project_name TEXT NOT NULL,
				description TEXT,
				url TEXT,
				status_id INTEGER,
				FOREIGN KEY (user_id) REFERENCES users(user_id),
				FOREIGN KEY (status_id) REFERENCES status(status_id)
			);

			CREATE TABLE IF NOT EXISTS skills (
				skill_id INTEGER PRIMARY KEY AUTOINCREMENT,
				skill_name TEXT NOT NULL
			);

			-- Association rows go away with their project or skill
			CREATE TABLE IF NOT EXISTS project_skills (
				project_id INTEGER,
				skill_id INTEGER,
				FOREIGN KEY (project_id) REFERENCES projects(project_id) ON DELETE CASCADE,
				FOREIGN KEY (skill_id) REFERENCES skills(skill_id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
			CREATE INDEX IF NOT EXISTS idx_project_skills_project ON project_skills(project_id);

			-- Seed the status catalog; ids 1..3 on a fresh store
			INSERT INTO status (status_name)
				SELECT 'в планах' WHERE NOT EXISTS (SELECT 1 FROM status WHERE status_name = 'в планах');
			INSERT INTO status (status_name)
				SELECT 'в работе' WHERE NOT EXISTS (SELECT 1 FROM status WHERE status_name = 'в работе');
			INSERT INTO status (status_name)
				SELECT 'завершен' WHERE NOT EXISTS (SELECT 1 FROM status WHERE status_name = 'завершен');
		`,
	},
	{
		Version: 2,
		Name:    "settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}
