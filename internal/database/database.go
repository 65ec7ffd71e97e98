package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	// ErrConnection is returned when the store cannot be opened or reached.
	ErrConnection = errors.New("database connection failed")
	// ErrStatement is returned when a statement is rejected by the store
	// (malformed SQL, constraint violation, duplicate column).
	ErrStatement = errors.New("database statement failed")
)

// Manager owns the path to the SQLite store. It holds no connection between
// calls: every operation opens a handle, runs its statements and closes it.
type Manager struct {
	path string
}

// New creates a manager for the store at path. The file is created on first use.
func New(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the database file path
func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) dsn() string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", m.path)
}

// open returns a single-connection handle. Callers must Close it.
func (m *Manager) open(op string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", m.dsn())
	if err != nil {
		return nil, m.fail(op, fmt.Errorf("%w: %w", ErrConnection, err))
	}

	// One connection per call keeps the per-connection pragmas in effect for
	// every statement of the operation.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, m.fail(op, fmt.Errorf("%w: %w", ErrConnection, err))
	}

	log.Trace().Str("op", op).Str("path", m.path).Msg("Database connection opened")
	return conn, nil
}

// withConn runs fn against a freshly opened handle and releases it afterwards.
func (m *Manager) withConn(op string, fn func(*sql.DB) error) error {
	conn, err := m.open(op)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return m.fail(op, statementError(err))
	}
	return nil
}

// transaction runs fn inside a single transaction on a freshly opened handle.
func (m *Manager) transaction(op string, fn func(*sql.Tx) error) error {
	conn, err := m.open(op)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return m.fail(op, fmt.Errorf("%w: failed to begin transaction: %w", ErrConnection, err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Str("op", op).Msg("Failed to rollback transaction")
		}
		return m.fail(op, statementError(err))
	}

	if err := tx.Commit(); err != nil {
		return m.fail(op, statementError(fmt.Errorf("failed to commit transaction: %w", err)))
	}

	return nil
}

// fail logs err at the point of execution and hands it back to the caller.
func (m *Manager) fail(op string, err error) error {
	log.Error().Err(err).Str("op", op).Str("path", m.path).Msg("Database operation failed")
	return err
}

// statementError tags err with ErrStatement unless it already carries a kind.
func statementError(err error) error {
	if errors.Is(err, ErrStatement) || errors.Is(err, ErrConnection) || errors.Is(err, ErrUnknownField) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStatement, err)
}
