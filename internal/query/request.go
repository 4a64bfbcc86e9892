package query

import (
	"context"
	"fmt"
	"strings"

	"datashelf/cli/internal/catalog"
	"datashelf/cli/internal/dberr"

	"github.com/jackc/pgx/v5"
)

// DefaultChunkSize is the number of rows fetched per chunk when the
// request does not specify one.
const DefaultChunkSize = 100000

// NoLimit disables the row limit on a table request.
const NoLimit = -1

// Filter restricts a table request to rows where Column Op Value holds.
// The value is always passed to the database as a bound parameter, never
// spliced into the SQL text.
type Filter struct {
	Column string
	Op     string
	Value  any
}

var allowedOps = map[string]string{
	"=": "=", "!=": "<>", "<>": "<>",
	"<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"like": "LIKE", "ilike": "ILIKE",
}

// Request describes one query: either raw SQL, or a (library, table)
// descriptor that datashelf turns into SQL after validating it against the
// metadata cache.
type Request struct {
	// SQL, when non-empty, is executed as-is and the descriptor fields are
	// ignored.
	SQL string

	Library string
	Table   string
	// Columns selects a subset of the table's columns; empty means all.
	Columns []string
	Filters []Filter
	// Limit bounds the row count via a LIMIT clause; NoLimit fetches
	// everything.
	Limit  int
	Offset int

	// ChunkSize overrides DefaultChunkSize for this request.
	ChunkSize int
}

// TableRequest returns a Request for a whole table with no row limit.
func TableRequest(library, table string) Request {
	return Request{Library: library, Table: table, Limit: NoLimit}
}

// RawRequest returns a Request for caller-supplied SQL.
func RawRequest(sql string) Request {
	return Request{SQL: sql, Limit: NoLimit}
}

func (r Request) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return DefaultChunkSize
}

// build produces the SQL text, bound arguments, and the table schema used
// for output coercion. Raw SQL passes through untouched and without a
// schema; descriptor requests are validated against the catalog so that
// bad identifiers fail before any round trip and filter values ride as
// parameters.
func (r Request) build(ctx context.Context, meta *catalog.Cache) (string, []any, *catalog.TableSchema, error) {
	if r.SQL != "" {
		return r.SQL, nil, nil, nil
	}
	if r.Library == "" || r.Table == "" {
		return "", nil, nil, dberr.New(dberr.Query, "request names neither SQL nor a library.table")
	}
	if meta == nil {
		return "", nil, nil, dberr.New(dberr.Query, "table requests require metadata access")
	}

	ts, err := meta.Describe(ctx, r.Library, r.Table)
	if err != nil {
		return "", nil, nil, err
	}

	cols := "*"
	if len(r.Columns) > 0 {
		quoted := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			if _, ok := ts.Column(c); !ok {
				return "", nil, nil, dberr.Newf(dberr.Query, "column %s does not exist in %s.%s", c, r.Library, r.Table)
			}
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, pgx.Identifier{r.Library, r.Table}.Sanitize())

	var args []any
	for i, f := range r.Filters {
		op, ok := allowedOps[strings.ToLower(f.Op)]
		if !ok {
			return "", nil, nil, dberr.Newf(dberr.Query, "unsupported filter operator %q", f.Op)
		}
		if _, ok := ts.Column(f.Column); !ok {
			return "", nil, nil, dberr.Newf(dberr.Query, "filter column %s does not exist in %s.%s", f.Column, r.Library, r.Table)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&b, "%s %s $%d", pgx.Identifier{f.Column}.Sanitize(), op, len(args))
	}

	// The limit travels to the server; fetching everything and truncating
	// client-side would waste transfer.
	if r.Limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", r.Limit)
	}
	if r.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", r.Offset)
	}
	return b.String(), args, &ts, nil
}
