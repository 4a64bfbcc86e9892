// Package session owns one logical database session for datashelf.
// A Manager wraps a single pooled connection with idempotent open/close and
// a uniform query capability for the metadata and query layers. When the
// underlying connection drops mid-use, the Manager transparently reopens
// the session with its cached credentials and retries the operation exactly
// once before surfacing a connection error.
//
// A Manager is meant for single-threaded use; callers wanting concurrency
// construct one Manager per goroutine, each mapping to its own database
// connection.
package session

import (
	"context"

	"datashelf/cli/internal/dberr"
)

// Rows is the row-cursor surface consumed by the catalog and query layers.
// It intentionally mirrors the shape of pgx.Rows while staying small enough
// to fake in tests.
type Rows interface {
	// FieldNames returns the result column names, in order.
	FieldNames() []string
	// Next advances to the next row; false when exhausted or on error.
	Next() bool
	// Values returns the decoded values of the current row.
	Values() ([]any, error)
	// Err returns the error, if any, encountered during iteration.
	Err() error
	// Close releases the cursor. Safe to call more than once.
	Close()
}

// Querier is what higher layers depend on instead of a concrete Manager.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// conn is the minimal driver surface behind a Manager.
type conn interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// dialFunc establishes a driver connection; injectable for tests.
type dialFunc func(ctx context.Context, dsn string) (conn, error)

// Manager owns a single logical session identified by its DSN.
type Manager struct {
	dsn  string
	dial dialFunc
	conn conn
}

// New creates a Manager for the given connection string. No connection is
// made until Open.
func New(dsn string) *Manager {
	return &Manager{dsn: dsn, dial: dialPgx}
}

// Open establishes the session. Calling Open on an already-open session is
// a no-op.
func (m *Manager) Open(ctx context.Context) error {
	if m.conn != nil {
		return nil
	}
	c, err := m.dial(ctx, m.dsn)
	if err != nil {
		return dberr.Wrap(dberr.Connection, "opening session", err)
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return dberr.Wrap(dberr.Connection, "verifying session", err)
	}
	m.conn = c
	return nil
}

// Close releases the session. Idempotent, and safe to call from deferred
// teardown even when a query failed; leaked sessions exhaust server-side
// connection limits on the shared catalog.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// Open reports whether the session is currently open.
func (m *Manager) IsOpen() bool { return m.conn != nil }

// Query executes sql with bound args against the open session. On a
// driver-level connection failure it reopens the session and retries once;
// SQL errors reported by the server are never retried, since a malformed
// query will not become valid on a second attempt.
func (m *Manager) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if m.conn == nil {
		return nil, dberr.New(dberr.Connection, "session is not open")
	}

	rows, err := m.conn.Query(ctx, sql, args...)
	if err == nil {
		return rows, nil
	}
	if isSQLError(err) || ctx.Err() != nil {
		return nil, Classify(err, sql)
	}

	// Connection likely dropped: reopen once with cached credentials.
	m.Close()
	if openErr := m.Open(ctx); openErr != nil {
		return nil, openErr
	}
	rows, err = m.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, Classify(err, sql)
	}
	return rows, nil
}

// Ping verifies the session is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.conn == nil {
		return dberr.New(dberr.Connection, "session is not open")
	}
	if err := m.conn.Ping(ctx); err != nil {
		return dberr.Wrap(dberr.Connection, "ping failed", err)
	}
	return nil
}

// Classify converts a driver error into the typed taxonomy: server-reported
// SQL failures become query errors carrying the offending statement, and
// everything else is treated as a connection failure.
func Classify(err error, sql string) error {
	if err == nil {
		return nil
	}
	if isSQLError(err) {
		return dberr.WrapSQL(dberr.Query, "database rejected query", sql, err)
	}
	return dberr.WrapSQL(dberr.Connection, "session lost during query", sql, err)
}
