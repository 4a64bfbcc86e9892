package creds

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datashelf/cli/internal/dberr"
)

func TestSavePgpassCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgpass")
	c := Credentials{Host: "db.example.edu", Port: 9737, Database: "shelf", Username: "alice", Password: "pw"}

	if err := SavePgpass(c, path); err != nil {
		t.Fatalf("SavePgpass() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(string(data)), "db.example.edu:9737:shelf:alice:pw"; got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
	fi, _ := os.Stat(path)
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %04o, want 0600", fi.Mode().Perm())
	}
}

func TestSavePgpassReplacesMatchingEntryOnly(t *testing.T) {
	path := writePgpass(t,
		"other.host:5432:otherdb:bob:keepme\n"+
			"db.example.edu:9737:shelf:alice:oldpw\n")
	c := Credentials{Host: "db.example.edu", Port: 9737, Database: "shelf", Username: "alice", Password: "newpw"}

	if err := SavePgpass(c, path); err != nil {
		t.Fatalf("SavePgpass() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "other.host:5432:otherdb:bob:keepme") {
		t.Error("unrelated entry was clobbered")
	}
	if !strings.Contains(content, "db.example.edu:9737:shelf:alice:newpw") {
		t.Error("matching entry was not replaced")
	}
	if strings.Contains(content, "oldpw") {
		t.Error("stale password still present")
	}
}

func TestSavePgpassAppends(t *testing.T) {
	path := writePgpass(t, "other.host:5432:otherdb:bob:pw\n")
	c := Credentials{Host: "db.example.edu", Port: 9737, Database: "shelf", Username: "alice", Password: "pw2"}

	if err := SavePgpass(c, path); err != nil {
		t.Fatalf("SavePgpass() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 2 {
		t.Errorf("line count = %d, want 2", n)
	}
}

func TestSavePgpassEscapesColons(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgpass")
	c := Credentials{Host: "h", Port: 1, Database: "d", Username: "u", Password: "pa:ss"}

	if err := SavePgpass(c, path); err != nil {
		t.Fatalf("SavePgpass() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `pa\:ss`) {
		t.Errorf("colon not escaped: %q", string(data))
	}
}

func TestSavePgpassRejectsLoosePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgpass")
	if err := os.WriteFile(path, []byte("a:1:b:c:d\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Credentials{Host: "h", Port: 1, Database: "d", Username: "u", Password: "p"}

	err := SavePgpass(c, path)
	if !dberr.IsKind(err, dberr.AuthConfig) {
		t.Errorf("error = %v, want auth_config for 0644 file", err)
	}
}

func TestSplitPgpassLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"a:1:b:c:d", []string{"a", "1", "b", "c", "d"}},
		{`a:1:b:c:pa\:ss`, []string{"a", "1", "b", "c", "pa:ss"}},
		{`a:1:b:c:pa\\ss`, []string{"a", "1", "b", "c", `pa\ss`}},
	}
	for _, tt := range tests {
		got := splitPgpassLine(tt.line)
		if len(got) != len(tt.want) {
			t.Errorf("splitPgpassLine(%q) = %v, want %v", tt.line, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitPgpassLine(%q)[%d] = %q, want %q", tt.line, i, got[i], tt.want[i])
			}
		}
	}
}
