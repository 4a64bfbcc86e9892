package query

import (
	"context"

	"datashelf/cli/internal/catalog"
	"datashelf/cli/internal/session"
)

// Executor runs requests against one session, consulting the metadata
// cache for descriptor validation and type coercion hints.
type Executor struct {
	db   session.Querier
	meta *catalog.Cache
}

// NewExecutor creates an Executor over the given session and cache. The
// cache may be nil when only raw SQL will be run.
func NewExecutor(db session.Querier, meta *catalog.Cache) *Executor {
	return &Executor{db: db, meta: meta}
}

// Run executes the request and materializes every chunk into one frame,
// preserving the row order produced by the database. If any chunk fails
// mid-fetch the already-fetched prefix is discarded and the error is
// returned; a partial result would be silently misleading.
func (e *Executor) Run(ctx context.Context, req Request) (*Frame, error) {
	chunks, err := e.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer chunks.Close()

	frame := &Frame{}
	for chunks.Next() {
		ch := chunks.Frame()
		if len(frame.Columns) == 0 {
			frame.Columns = ch.Columns
		}
		frame.append(ch)
	}
	if err := chunks.Err(); err != nil {
		return nil, err
	}
	if len(frame.Columns) == 0 {
		frame.Columns = chunks.Columns()
	}
	return frame, nil
}

// Stream executes the request and returns a lazy sequence of chunk frames.
// Each chunk is fetched from the cursor only when the caller advances to
// it, so the session must stay open for the sequence's entire consumption;
// closing it mid-stream surfaces a connection error on the next pull. The
// sequence is finite and cannot be restarted.
func (e *Executor) Stream(ctx context.Context, req Request) (*Chunks, error) {
	sqlText, args, ts, err := req.build(ctx, e.meta)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}

	names := rows.FieldNames()
	cols := make([]Col, len(names))
	coercers := make([]coercer, len(names))
	for i, name := range names {
		cols[i] = Col{Name: name}
		coercers[i] = normalize
		if ts != nil {
			if sc, ok := ts.Column(name); ok {
				cols[i].Type = sc.Type
				coercers[i] = coercerFor(sc.Type)
			}
		}
	}

	return &Chunks{
		rows:     rows,
		sql:      sqlText,
		size:     req.chunkSize(),
		cols:     cols,
		coercers: coercers,
	}, nil
}

// Chunks is a lazy, finite, non-restartable sequence of chunk frames over
// one open cursor.
type Chunks struct {
	rows     session.Rows
	sql      string
	size     int
	cols     []Col
	coercers []coercer

	cur  *Frame
	err  error
	done bool
}

// Columns returns the output columns, available before the first chunk.
func (c *Chunks) Columns() []Col { return c.cols }

// Next fetches the next chunk, returning false when the sequence is
// exhausted or an error occurred. Check Err after the final Next.
func (c *Chunks) Next() bool {
	if c.done || c.err != nil {
		return false
	}

	frame := &Frame{Columns: c.cols}
	for len(frame.Rows) < c.size && c.rows.Next() {
		vals, err := c.rows.Values()
		if err != nil {
			c.fail(err)
			return false
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			if i < len(c.coercers) {
				row[i] = c.coercers[i](v)
			} else {
				row[i] = normalize(v)
			}
		}
		frame.Rows = append(frame.Rows, row)
	}

	if len(frame.Rows) < c.size {
		// Cursor exhausted, or it stopped early on an error.
		if err := c.rows.Err(); err != nil {
			c.fail(err)
			return false
		}
		c.done = true
		c.rows.Close()
		if len(frame.Rows) == 0 {
			return false
		}
	}
	c.cur = frame
	return true
}

// Frame returns the chunk fetched by the last successful Next.
func (c *Chunks) Frame() *Frame { return c.cur }

// Err returns the error that terminated the sequence, if any.
func (c *Chunks) Err() error { return c.err }

// Close releases the underlying cursor. Safe to call at any point and more
// than once.
func (c *Chunks) Close() {
	if !c.done {
		c.rows.Close()
		c.done = true
	}
}

func (c *Chunks) fail(err error) {
	c.err = session.Classify(err, c.sql)
	c.rows.Close()
	c.done = true
}
