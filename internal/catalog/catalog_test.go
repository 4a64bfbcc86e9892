package catalog

import (
	"context"
	"strings"
	"testing"

	"datashelf/cli/internal/dberr"
	"datashelf/cli/internal/session"
)

type fakeRows struct {
	names []string
	data  [][]any
	i     int
}

func (f *fakeRows) FieldNames() []string { return f.names }
func (f *fakeRows) Next() bool {
	if f.i >= len(f.data) {
		return false
	}
	f.i++
	return true
}
func (f *fakeRows) Values() ([]any, error) { return f.data[f.i-1], nil }
func (f *fakeRows) Err() error             { return nil }
func (f *fakeRows) Close()                 {}

// fakeQuerier serves canned rows keyed by a fragment of the SQL text and
// records every statement it sees. Fragments are checked in order, most
// specific first, so a statement matching several fragments resolves
// deterministically.
type cannedResponse struct {
	frag string
	data [][]any
}

type fakeQuerier struct {
	responses []cannedResponse
	calls     []string
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (session.Rows, error) {
	f.calls = append(f.calls, sql)
	for _, r := range f.responses {
		if strings.Contains(sql, r.frag) {
			return &fakeRows{data: r.data}, nil
		}
	}
	return &fakeRows{}, nil
}

func (f *fakeQuerier) setResponse(frag string, data [][]any) {
	for i := range f.responses {
		if f.responses[i].frag == frag {
			f.responses[i].data = data
			return
		}
	}
	f.responses = append(f.responses, cannedResponse{frag, data})
}

func (f *fakeQuerier) countCalls(frag string) int {
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, frag) {
			n++
		}
	}
	return n
}

func newFakeDB() *fakeQuerier {
	return &fakeQuerier{responses: []cannedResponse{
		{"reltuples", [][]any{
			{int64(16378400)},
		}},
		{"information_schema.tables", [][]any{
			{"dsf"}, {"msf"},
		}},
		{"information_schema.columns", [][]any{
			{"permno", "integer", "NO"},
			{"caldt", "date", "YES"},
			{"ret", "numeric", "YES"},
		}},
		{"pg_namespace", [][]any{
			{"crsp"}, {"comp"}, {"crsp_old"}, {"comp_all"}, {"audit"},
		}},
	}}
}

func TestListLibrariesFiltersAndSorts(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	libs, err := c.ListLibraries(context.Background())
	if err != nil {
		t.Fatalf("ListLibraries() error = %v", err)
	}
	want := []string{"audit", "comp", "crsp"}
	if len(libs) != len(want) {
		t.Fatalf("libraries = %v, want %v", libs, want)
	}
	for i := range want {
		if libs[i] != want[i] {
			t.Errorf("libraries[%d] = %q, want %q", i, libs[i], want[i])
		}
	}
}

func TestListLibrariesCached(t *testing.T) {
	db := newFakeDB()
	c := New(db)
	ctx := context.Background()

	if _, err := c.ListLibraries(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListLibraries(ctx); err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("pg_namespace"); n != 1 {
		t.Errorf("library round trips = %d, want 1", n)
	}
}

func TestListTablesCachedPerLibrary(t *testing.T) {
	db := newFakeDB()
	c := New(db)
	ctx := context.Background()

	first, err := c.ListTables(ctx, "crsp")
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	second, err := c.ListTables(ctx, "crsp")
	if err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("information_schema.tables"); n != 1 {
		t.Errorf("table round trips = %d, want 1", n)
	}
	if len(first) != 2 || first[0] != "dsf" || first[1] != "msf" {
		t.Errorf("tables = %v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Error("cached result differs from first fetch")
		}
	}
}

func TestListTablesUnknownLibrary(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	_, err := c.ListTables(context.Background(), "nosuchlib")
	if !dberr.IsKind(err, dberr.UnknownLibrary) {
		t.Errorf("error = %v, want unknown_library", err)
	}
	if n := db.countCalls("information_schema.tables"); n != 0 {
		t.Error("table query ran for an unknown library")
	}
}

func TestDescribe(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	ts, err := c.Describe(context.Background(), "crsp", "dsf")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(ts.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(ts.Columns))
	}
	if ts.Columns[0].Name != "permno" || ts.Columns[0].Nullable {
		t.Errorf("columns[0] = %+v", ts.Columns[0])
	}
	if ts.Columns[1].Type != "date" || !ts.Columns[1].Nullable {
		t.Errorf("columns[1] = %+v", ts.Columns[1])
	}
	if col, ok := ts.Column("ret"); !ok || col.Type != "numeric" {
		t.Errorf("Column(ret) = %+v, %v", col, ok)
	}

	if _, err := c.Describe(context.Background(), "crsp", "dsf"); err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("information_schema.columns"); n != 1 {
		t.Errorf("describe round trips = %d, want 1", n)
	}
}

func TestDescribeUnknownTable(t *testing.T) {
	db := newFakeDB()
	db.setResponse("information_schema.columns", nil)
	c := New(db)

	_, err := c.Describe(context.Background(), "crsp", "nosuchtable")
	if !dberr.IsKind(err, dberr.UnknownTable) {
		t.Errorf("error = %v, want unknown_table", err)
	}
}

func TestInvalidateLibraryForcesRefetch(t *testing.T) {
	db := newFakeDB()
	c := New(db)
	ctx := context.Background()

	if _, err := c.ListTables(ctx, "crsp"); err != nil {
		t.Fatal(err)
	}
	c.InvalidateLibrary("crsp")
	if _, err := c.ListTables(ctx, "crsp"); err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("information_schema.tables"); n != 2 {
		t.Errorf("table round trips after invalidation = %d, want 2", n)
	}
}

func TestInvalidateTableClearsOnlyThatSchema(t *testing.T) {
	db := newFakeDB()
	c := New(db)
	ctx := context.Background()

	if _, err := c.Describe(ctx, "crsp", "dsf"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Describe(ctx, "crsp", "msf"); err != nil {
		t.Fatal(err)
	}
	c.InvalidateTable("crsp", "dsf")
	if _, err := c.Describe(ctx, "crsp", "dsf"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Describe(ctx, "crsp", "msf"); err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("information_schema.columns"); n != 3 {
		t.Errorf("describe round trips = %d, want 3 (one refetch)", n)
	}
}

func TestInvalidateAll(t *testing.T) {
	db := newFakeDB()
	c := New(db)
	ctx := context.Background()

	if _, err := c.ListLibraries(ctx); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, err := c.ListLibraries(ctx); err != nil {
		t.Fatal(err)
	}
	if n := db.countCalls("pg_namespace"); n != 2 {
		t.Errorf("library round trips = %d, want 2", n)
	}
}

func TestRowCount(t *testing.T) {
	db := newFakeDB()
	c := New(db)

	n, err := c.RowCount(context.Background(), "crsp", "dsf")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 16378400 {
		t.Errorf("RowCount() = %d, want 16378400", n)
	}
}
