package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when an update names a column that is not
// in the allow-list of updatable project fields.
var ErrUnknownField = errors.New("unknown project field")

// ProjectField names a project column that callers may update.
type ProjectField string

const (
	ProjectFieldName        ProjectField = "project_name"
	ProjectFieldDescription ProjectField = "description"
	ProjectFieldURL         ProjectField = "url"
	ProjectFieldStatus      ProjectField = "status_id"
	ProjectFieldPhoto       ProjectField = "photo"
)

// Each updatable field maps to a fixed statement; caller text never reaches
// the statement itself.
var projectUpdates = map[ProjectField]string{
	ProjectFieldName:        "UPDATE projects SET project_name = ? WHERE project_name = ? AND user_id = ?",
	ProjectFieldDescription: "UPDATE projects SET description = ? WHERE project_name = ? AND user_id = ?",
	ProjectFieldURL:         "UPDATE projects SET url = ? WHERE project_name = ? AND user_id = ?",
	ProjectFieldStatus:      "UPDATE projects SET status_id = ? WHERE project_name = ? AND user_id = ?",
	ProjectFieldPhoto:       "UPDATE projects SET photo = ? WHERE project_name = ? AND user_id = ?",
}

// ParseProjectField validates a field name against the allow-list.
func ParseProjectField(name string) (ProjectField, error) {
	field := ProjectField(strings.TrimSpace(name))
	if _, ok := projectUpdates[field]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return field, nil
}

// ProjectInfo is one project row joined with its status label.
type ProjectInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	Photo       string `json:"photo,omitempty"`
}

// CreateProject inserts a project owned by userID. The user and status must
// exist; the store rejects dangling references.
func (m *Manager) CreateProject(userID int64, name, description, url string, statusID int64) error {
	return m.withConn("create project", func(conn *sql.DB) error {
		_, err := conn.Exec(`
			INSERT INTO projects (user_id, project_name, description, url, status_id)
			VALUES (?, ?, ?, ?, ?)
		`, userID, name, description, url, statusID)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return nil
	})
}

// GetProjectsForUser returns one summary line per project of the user:
// "id, name, description, url, status".
func (m *Manager) GetProjectsForUser(userID int64) ([]string, error) {
	summaries := []string{}
	err := m.withConn("get projects for user", func(conn *sql.DB) error {
		rows, err := conn.Query(`
			SELECT p.project_id, p.project_name, p.description, p.url, s.status_name
			FROM projects p
			JOIN status s ON s.status_id = p.status_id
			WHERE p.user_id = ?
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var info ProjectInfo
			var description, url sql.NullString
			if err := rows.Scan(&info.ID, &info.Name, &description, &url, &info.Status); err != nil {
				return fmt.Errorf("failed to scan project: %w", err)
			}
			info.Description = nullStringValue(description)
			info.URL = nullStringValue(url)
			summaries = append(summaries, info.Summary())
		}
		return rows.Err()
	})
	if err != nil {
		return []string{}, err
	}
	return summaries, nil
}

// Summary formats the project the way GetProjectsForUser reports it.
func (p ProjectInfo) Summary() string {
	return strings.Join([]string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.Description,
		p.URL,
		p.Status,
	}, ", ")
}

// GetProjectInfo returns every project of the user whose name matches
// exactly. Names are not unique per user, so more than one row may come back.
func (m *Manager) GetProjectInfo(userID int64, name string) ([]ProjectInfo, error) {
	projects := []ProjectInfo{}
	err := m.withConn("get project info", func(conn *sql.DB) error {
		hasPhoto, err := columnExists(conn, "projects", "photo")
		if err != nil {
			return fmt.Errorf("failed to inspect projects table: %w", err)
		}

		photoColumn := "NULL"
		if hasPhoto {
			photoColumn = "p.photo"
		}

		rows, err := conn.Query(`
			SELECT p.project_id, p.project_name, p.description, p.url, s.status_name, `+photoColumn+`
			FROM projects p
			JOIN status s ON s.status_id = p.status_id
			WHERE p.project_name = ? AND p.user_id = ?
			ORDER BY p.project_id
		`, name, userID)
		if err != nil {
			return fmt.Errorf("failed to get project: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var info ProjectInfo
			var description, url, photo sql.NullString
			if err := rows.Scan(&info.ID, &info.Name, &description, &url, &info.Status, &photo); err != nil {
				return fmt.Errorf("failed to scan project: %w", err)
			}
			info.Description = nullStringValue(description)
			info.URL = nullStringValue(url)
			info.Photo = nullStringValue(photo)
			projects = append(projects, info)
		}
		return rows.Err()
	})
	if err != nil {
		return []ProjectInfo{}, err
	}
	return projects, nil
}

// UpdateProjectField sets one allow-listed field on every project of the user
// named projectName and returns the number of rows changed.
func (m *Manager) UpdateProjectField(field ProjectField, value, projectName string, userID int64) (int64, error) {
	stmt, ok := projectUpdates[field]
	if !ok {
		return 0, m.fail("update project field", fmt.Errorf("%w: %q", ErrUnknownField, string(field)))
	}

	var affected int64
	err := m.withConn("update project field", func(conn *sql.DB) error {
		result, err := conn.Exec(stmt, value, projectName, userID)
		if err != nil {
			return fmt.Errorf("failed to update project %s: %w", field, err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DeleteProject removes the user's project together with its skill
// associations and returns the number of projects removed.
func (m *Manager) DeleteProject(userID, projectID int64) (int64, error) {
	var affected int64
	err := m.transaction("delete project", func(tx *sql.Tx) error {
		// Stores created without ON DELETE CASCADE keep association rows otherwise.
		_, err := tx.Exec(`
			DELETE FROM project_skills
			WHERE project_id IN (SELECT project_id FROM projects WHERE user_id = ? AND project_id = ?)
		`, userID, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete project skills: %w", err)
		}

		result, err := tx.Exec("DELETE FROM projects WHERE user_id = ? AND project_id = ?", userID, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
