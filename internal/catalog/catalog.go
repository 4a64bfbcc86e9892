// Package catalog provides cached metadata discovery for the research
// database: accessible libraries (schemas), tables per library, and column
// definitions per table. Lookups are lazy and cached for the life of the
// process; entries are never refreshed behind the caller's back. A stale
// schema is served until Invalidate is called, trading correctness on
// schema change for round-trip avoidance, since metadata is reused heavily
// within a research session and schemas change far less often than data.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"datashelf/cli/internal/dberr"
	"datashelf/cli/internal/session"
)

// Column describes one column of a table: name, declared database type,
// and nullability.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// TableSchema is the ordered column layout of one (library, table) pair.
type TableSchema struct {
	Library string
	Table   string
	Columns []Column
}

// Column returns the named column and whether it exists.
func (s TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// librariesSQL lists schemas the current user can use, skipping postgres
// internals. The *_old and *_all namespaces are maintenance duplicates of
// the primary libraries and are hidden from discovery.
const librariesSQL = `
WITH RECURSIVE "names"("name") AS (
  SELECT n.nspname AS "name"
  FROM pg_catalog.pg_namespace n
  WHERE n.nspname !~ '^pg_'
    AND n.nspname <> 'information_schema'
)
SELECT "name"
FROM "names"
WHERE pg_catalog.has_schema_privilege(current_user, "name", 'USAGE') = TRUE`

const tablesSQL = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
ORDER BY table_name`

const columnsSQL = `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// rowCountSQL reads the planner's row estimate; exact counts on
// billion-row research tables are not worth the scan.
const rowCountSQL = `
SELECT reltuples::bigint
FROM pg_class r
JOIN pg_namespace n ON r.relnamespace = n.oid
WHERE n.nspname = $1 AND r.relname = $2`

// Cache is a process-scoped metadata cache bound to one session. Safe for
// concurrent readers; population takes the write lock.
type Cache struct {
	q session.Querier

	mu        sync.RWMutex
	libraries []string
	tables    map[string][]string
	schemas   map[string]TableSchema
}

// New creates an empty Cache over the given session.
func New(q session.Querier) *Cache {
	return &Cache{
		q:       q,
		tables:  make(map[string][]string),
		schemas: make(map[string]TableSchema),
	}
}

// ListLibraries returns the libraries the user can access. The first call
// hits the database; subsequent calls are served from cache until
// Invalidate.
func (c *Cache) ListLibraries(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.libraries != nil {
		libs := c.libraries
		c.mu.RUnlock()
		return libs, nil
	}
	c.mu.RUnlock()

	rows, err := c.q.Query(ctx, librariesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var libs []string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, session.Classify(err, librariesSQL)
		}
		name := asString(vals[0])
		if strings.HasSuffix(name, "_old") || strings.HasSuffix(name, "_all") {
			continue
		}
		libs = append(libs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, session.Classify(err, librariesSQL)
	}
	sort.Strings(libs)
	if libs == nil {
		libs = []string{}
	}

	c.mu.Lock()
	c.libraries = libs
	c.mu.Unlock()
	return libs, nil
}

// ListTables returns the tables (and views) in a library, cached per
// library. An unknown library yields an unknown_library error.
func (c *Cache) ListTables(ctx context.Context, library string) ([]string, error) {
	c.mu.RLock()
	if tbls, ok := c.tables[library]; ok {
		c.mu.RUnlock()
		return tbls, nil
	}
	c.mu.RUnlock()

	if err := c.checkLibrary(ctx, library); err != nil {
		return nil, err
	}

	rows, err := c.q.Query(ctx, tablesSQL, library)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tbls := []string{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, session.Classify(err, tablesSQL)
		}
		tbls = append(tbls, asString(vals[0]))
	}
	if err := rows.Err(); err != nil {
		return nil, session.Classify(err, tablesSQL)
	}

	c.mu.Lock()
	c.tables[library] = tbls
	c.mu.Unlock()
	return tbls, nil
}

// Describe returns the column layout of library.table, cached per pair.
// The library is validated first so a missing schema and a missing table
// produce distinct errors.
func (c *Cache) Describe(ctx context.Context, library, table string) (TableSchema, error) {
	key := schemaKey(library, table)
	c.mu.RLock()
	if ts, ok := c.schemas[key]; ok {
		c.mu.RUnlock()
		return ts, nil
	}
	c.mu.RUnlock()

	if err := c.checkLibrary(ctx, library); err != nil {
		return TableSchema{}, err
	}

	rows, err := c.q.Query(ctx, columnsSQL, library, table)
	if err != nil {
		return TableSchema{}, err
	}
	defer rows.Close()

	ts := TableSchema{Library: library, Table: table}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return TableSchema{}, session.Classify(err, columnsSQL)
		}
		ts.Columns = append(ts.Columns, Column{
			Name:     asString(vals[0]),
			Type:     asString(vals[1]),
			Nullable: strings.EqualFold(asString(vals[2]), "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return TableSchema{}, session.Classify(err, columnsSQL)
	}
	if len(ts.Columns) == 0 {
		return TableSchema{}, dberr.Newf(dberr.UnknownTable, "table %s.%s is not found", library, table)
	}

	c.mu.Lock()
	c.schemas[key] = ts
	c.mu.Unlock()
	return ts, nil
}

// RowCount returns the planner's approximate row count for library.table.
// Estimates change with the data, so the result is never cached.
func (c *Cache) RowCount(ctx context.Context, library, table string) (int64, error) {
	if err := c.checkLibrary(ctx, library); err != nil {
		return 0, err
	}
	rows, err := c.q.Query(ctx, rowCountSQL, library, table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, session.Classify(err, rowCountSQL)
		}
		// Views have no reltuples of their own; the estimate is best-effort.
		return 0, nil
	}
	vals, err := rows.Values()
	if err != nil {
		return 0, session.Classify(err, rowCountSQL)
	}
	return asInt64(vals[0]), nil
}

// Invalidate clears the whole cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.libraries = nil
	c.tables = make(map[string][]string)
	c.schemas = make(map[string]TableSchema)
}

// InvalidateLibrary clears the table list and schemas cached for one
// library, plus the library list itself.
func (c *Cache) InvalidateLibrary(library string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.libraries = nil
	delete(c.tables, library)
	for key := range c.schemas {
		if strings.HasPrefix(key, library+".") {
			delete(c.schemas, key)
		}
	}
}

// InvalidateTable clears the cached schema for one (library, table) pair.
func (c *Cache) InvalidateTable(library, table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.schemas, schemaKey(library, table))
}

// checkLibrary gives a precise unknown_library error before any
// per-library query runs.
func (c *Cache) checkLibrary(ctx context.Context, library string) error {
	libs, err := c.ListLibraries(ctx)
	if err != nil {
		return err
	}
	for _, l := range libs {
		if l == library {
			return nil
		}
	}
	return dberr.Newf(dberr.UnknownLibrary, "library %s is not found or not accessible", library)
}

func schemaKey(library, table string) string { return library + "." + table }

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return ""
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	}
	return 0
}
