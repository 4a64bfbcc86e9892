package creds

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"datashelf/cli/internal/dberr"
)

// defaultPgpassPath returns the well-known per-user pgpass location:
// ~/.pgpass on Unix-likes, %APPDATA%\postgresql\pgpass.conf on Windows.
func defaultPgpassPath() string {
	if runtime.GOOS == "windows" {
		appdata := os.Getenv("APPDATA")
		if appdata == "" {
			return ""
		}
		return filepath.Join(appdata, "postgresql", "pgpass.conf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// SavePgpass writes the credentials to the pgpass file without clobbering
// entries for other databases. A line matching the same host, port, and
// database is replaced; otherwise the entry is appended. The file ends up
// owner-read/write only; failure to restrict permissions is an auth_config
// error, since a world-readable password file is worse than no file.
func SavePgpass(c Credentials, path string) error {
	if path == "" {
		path = defaultPgpassPath()
	}
	if path == "" {
		return dberr.New(dberr.AuthConfig, "cannot determine pgpass location")
	}

	entry := formatPgpassLine(c)

	var lines []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := checkOwnerOnly(path); err != nil {
			return err
		}
		replaced := false
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if matchesTarget(line, c.Host, c.Port, c.Database) {
				if !replaced {
					lines = append(lines, entry)
					replaced = true
				}
				continue
			}
			lines = append(lines, line)
		}
		if !replaced {
			lines = append(lines, entry)
		}
	case os.IsNotExist(err):
		if dir := filepath.Dir(path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
				return dberr.Wrap(dberr.AuthConfig, "creating pgpass directory", mkErr)
			}
		}
		lines = []string{entry}
	default:
		return dberr.Wrap(dberr.AuthConfig, "reading pgpass file", err)
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return dberr.Wrap(dberr.AuthConfig, "writing pgpass file", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return dberr.Wrap(dberr.AuthConfig, "restricting pgpass permissions", err)
	}
	return nil
}

// checkOwnerOnly rejects a pgpass file readable or writable by anyone but
// the owner. Windows ACLs are out of scope for the mode-bit check.
func checkOwnerOnly(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return dberr.Wrap(dberr.AuthConfig, "checking pgpass permissions", err)
	}
	if fi.Mode().Perm()&0o077 != 0 {
		return dberr.Newf(dberr.AuthConfig,
			"pgpass file %s has permissions %04o; must be accessible only by the owner (chmod 0600)",
			path, fi.Mode().Perm())
	}
	return nil
}

// formatPgpassLine renders hostname:port:database:username:password with
// the ':' and '\' characters escaped as the format requires.
func formatPgpassLine(c Credentials) string {
	return fmt.Sprintf("%s:%d:%s:%s:%s",
		escapePgpassField(c.Host), c.Port,
		escapePgpassField(c.Database),
		escapePgpassField(c.Username),
		escapePgpassField(c.Password))
}

func escapePgpassField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ":", `\:`)
}

// matchesTarget reports whether a pgpass line refers to the same
// host/port/database triple, ignoring escaped colons inside fields.
func matchesTarget(line string, host string, port int, database string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	fields := splitPgpassLine(trimmed)
	if len(fields) < 3 {
		return false
	}
	return fields[0] == host && fields[1] == strconv.Itoa(port) && fields[2] == database
}

// splitPgpassLine splits on unescaped colons and unescapes the fields.
func splitPgpassLine(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
