// Package shelf assembles the datashelf client: credential resolution, a
// managed session, cached metadata discovery, and chunked query execution
// behind one connection object.
package shelf

import (
	"context"

	"datashelf/cli/internal/catalog"
	"datashelf/cli/internal/creds"
	"datashelf/cli/internal/dsn"
	"datashelf/cli/internal/query"
	"datashelf/cli/internal/session"
)

// Conn is one authenticated session to the research catalog plus its
// process-scoped metadata cache. Not safe for concurrent use; open one
// Conn per goroutine.
type Conn struct {
	mgr   *session.Manager
	meta  *catalog.Cache
	exec  *query.Executor
	creds creds.Credentials
}

// Connect resolves credentials, opens the session, and wires the metadata
// cache and executor to it. The caller owns the Conn and must Close it on
// every exit path; leaked sessions count against server-side connection
// limits.
func Connect(ctx context.Context, opts creds.Options) (*Conn, error) {
	c, err := creds.NewResolver().Resolve(opts)
	if err != nil {
		return nil, err
	}
	mgr := session.New(dsn.FromCredentials(c).Normalize())
	if err := mgr.Open(ctx); err != nil {
		return nil, err
	}
	meta := catalog.New(mgr)
	return &Conn{
		mgr:   mgr,
		meta:  meta,
		exec:  query.NewExecutor(mgr, meta),
		creds: c,
	}, nil
}

// Close releases the session. Idempotent.
func (c *Conn) Close() { c.mgr.Close() }

// Credentials returns the credentials this session was opened with.
func (c *Conn) Credentials() creds.Credentials { return c.creds }

// Meta exposes the metadata cache for listing, describing, and
// invalidation.
func (c *Conn) Meta() *catalog.Cache { return c.meta }

// Libraries lists the libraries the user can access.
func (c *Conn) Libraries(ctx context.Context) ([]string, error) {
	return c.meta.ListLibraries(ctx)
}

// Tables lists the tables within a library.
func (c *Conn) Tables(ctx context.Context, library string) ([]string, error) {
	return c.meta.ListTables(ctx, library)
}

// Describe returns the column layout of library.table.
func (c *Conn) Describe(ctx context.Context, library, table string) (catalog.TableSchema, error) {
	return c.meta.Describe(ctx, library, table)
}

// RowCount returns the approximate row count of library.table.
func (c *Conn) RowCount(ctx context.Context, library, table string) (int64, error) {
	return c.meta.RowCount(ctx, library, table)
}

// RawSQL runs caller-supplied SQL and materializes the result.
func (c *Conn) RawSQL(ctx context.Context, sql string) (*query.Frame, error) {
	return c.exec.Run(ctx, query.RawRequest(sql))
}

// Run executes a request in materialize mode.
func (c *Conn) Run(ctx context.Context, req query.Request) (*query.Frame, error) {
	return c.exec.Run(ctx, req)
}

// Stream executes a request in stream mode. The Conn must stay open until
// the returned sequence is fully consumed or closed.
func (c *Conn) Stream(ctx context.Context, req query.Request) (*query.Chunks, error) {
	return c.exec.Stream(ctx, req)
}

// SavePgpass persists this session's credentials to the pgpass file so
// future sessions connect without a prompt.
func (c *Conn) SavePgpass() error {
	return creds.SavePgpass(c.creds, "")
}
