package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/projectdb/internal/auth"
)

// CreateUser registers a user. Names are not unique, so registering the
// same name twice creates two accounts. The password is stored as a bcrypt hash.
func (m *Manager) CreateUser(name, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return m.fail("create user", fmt.Errorf("%w: %w", ErrStatement, err))
	}

	return m.withConn("create user", func(conn *sql.DB) error {
		_, err := conn.Exec("INSERT INTO users (user_name, user_password) VALUES (?, ?)", name, hash)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// AuthenticateUser returns the id of the first user whose name and password
// both match, or 0 when no user matches. Passwords left in plaintext by older
// stores are compared literally and upgraded to a hash on success. A failed
// upgrade leaves the row as it was and does not reject the login.
func (m *Manager) AuthenticateUser(name, password string) (int64, error) {
	var userID int64
	err := m.transaction("authenticate user", func(tx *sql.Tx) error {
		candidates, err := usersByName(tx, name)
		if err != nil {
			return err
		}

		for _, c := range candidates {
			if auth.IsHash(c.password) {
				if auth.CheckPassword(password, c.password) {
					userID = c.id
					return nil
				}
				continue
			}

			if c.password != password {
				continue
			}
			userID = c.id
			if err := upgradePassword(tx, c.id, password); err != nil {
				log.Warn().Err(err).Int64("user_id", c.id).Msg("Keeping plaintext password")
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// MigrateLegacyPasswords hashes every password still stored in plaintext and
// returns how many rows were rewritten. Rows that cannot be hashed are skipped.
func (m *Manager) MigrateLegacyPasswords() (int, error) {
	var migrated int
	err := m.transaction("migrate legacy passwords", func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT user_id, user_password FROM users")
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		var legacy []credential
		for rows.Next() {
			var c credential
			if err := rows.Scan(&c.id, &c.password); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan user: %w", err)
			}
			if !auth.IsHash(c.password) {
				legacy = append(legacy, c)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, c := range legacy {
			if err := upgradePassword(tx, c.id, c.password); err != nil {
				log.Warn().Err(err).Int64("user_id", c.id).Msg("Skipping plaintext password")
				continue
			}
			migrated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if migrated > 0 {
		log.Info().Int("count", migrated).Msg("Migrated plaintext passwords to bcrypt")
	}
	return migrated, nil
}

type credential struct {
	id       int64
	password string
}

func usersByName(q querier, name string) ([]credential, error) {
	rows, err := q.Query("SELECT user_id, user_password FROM users WHERE user_name = ? ORDER BY user_id", name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	defer rows.Close()

	var creds []credential
	for rows.Next() {
		var c credential
		if err := rows.Scan(&c.id, &c.password); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// upgradePassword replaces a plaintext password with its hash. The hash is
// computed before any write, so an error leaves the row untouched.
func upgradePassword(q querier, userID int64, plaintext string) error {
	hash, err := auth.HashPassword(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStatement, err)
	}
	if _, err := q.Exec("UPDATE users SET user_password = ? WHERE user_id = ?", hash, userID); err != nil {
		return fmt.Errorf("failed to upgrade password: %w", err)
	}
	log.Debug().Int64("user_id", userID).Msg("Upgraded plaintext password")
	return nil
}
