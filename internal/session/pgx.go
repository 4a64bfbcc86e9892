package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dialPgx opens a pgx pool capped at one connection, which gives single
// session semantics while keeping pgx's health checking.
func dialPgx(ctx context.Context, dsn string) (conn, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 1
	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgxConn{pool: pool}, nil
}

type pgxConn struct {
	pool *pgxpool.Pool
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (c *pgxConn) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *pgxConn) Close() { c.pool.Close() }

// pgxRows adapts pgx.Rows to the session.Rows interface.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) FieldNames() []string {
	fds := r.rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Values() ([]any, error) { return r.rows.Values() }
func (r *pgxRows) Err() error             { return r.rows.Err() }
func (r *pgxRows) Close()                 { r.rows.Close() }

// isSQLError reports whether err was reported by the server itself (syntax,
// permission, constraint violation) as opposed to a transport failure.
func isSQLError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
