package database

import (
	"database/sql"
	"fmt"
)

// Skill is an entry in the global skill catalog.
type Skill struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateSkill adds a skill to the global catalog.
func (m *Manager) CreateSkill(name string) error {
	return m.withConn("create skill", func(conn *sql.DB) error {
		if _, err := conn.Exec("INSERT INTO skills (skill_name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to create skill: %w", err)
		}
		return nil
	})
}

// ListSkills returns the skill catalog ordered by id.
func (m *Manager) ListSkills() ([]Skill, error) {
	skills := []Skill{}
	err := m.withConn("list skills", func(conn *sql.DB) error {
		rows, err := conn.Query("SELECT skill_id, skill_name FROM skills ORDER BY skill_id")
		if err != nil {
			return fmt.Errorf("failed to list skills: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var s Skill
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				return fmt.Errorf("failed to scan skill: %w", err)
			}
			skills = append(skills, s)
		}
		return rows.Err()
	})
	if err != nil {
		return []Skill{}, err
	}
	return skills, nil
}

// AddSkillToProject links an existing skill to an existing project.
func (m *Manager) AddSkillToProject(projectID, skillID int64) error {
	return m.withConn("add skill to project", func(conn *sql.DB) error {
		_, err := conn.Exec("INSERT INTO project_skills (project_id, skill_id) VALUES (?, ?)", projectID, skillID)
		if err != nil {
			return fmt.Errorf("failed to add skill to project: %w", err)
		}
		return nil
	})
}

// GetSkillsForProject returns the names of the skills linked to the project
// in the order the store yields them.
func (m *Manager) GetSkillsForProject(projectID int64) ([]string, error) {
	var names []string
	err := m.withConn("get skills for project", func(conn *sql.DB) error {
		var err error
		names, err = queryStrings(conn, `
			SELECT s.skill_name FROM project_skills ps
			JOIN skills s ON s.skill_id = ps.skill_id
			WHERE ps.project_id = ?
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to get skills for project: %w", err)
		}
		return nil
	})
	if err != nil {
		return []string{}, err
	}
	return names, nil
}

// DeleteSkill unlinks a skill from a project. The catalog entry stays.
func (m *Manager) DeleteSkill(projectID, skillID int64) (int64, error) {
	var affected int64
	err := m.withConn("delete project skill", func(conn *sql.DB) error {
		result, err := conn.Exec("DELETE FROM project_skills WHERE skill_id = ? AND project_id = ?", skillID, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete project skill: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
