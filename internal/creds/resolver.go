// Package creds resolves database credentials for a datashelf session.
// Resolution order: explicit caller-supplied values, then PG* environment
// variables, then a pgpass lookup, then an interactive prompt when stdin
// is attached to a terminal. Secrets are held in memory only; opt-in
// persistence goes through the pgpass file, never a config file.
package creds

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"datashelf/cli/internal/dberr"
	"datashelf/cli/internal/terminal"

	"github.com/jackc/pgpassfile"
	"golang.org/x/term"
)

// Environment variables recognized as credential fallbacks. These are the
// standard libpq names, so existing psql setups keep working.
const (
	EnvHost     = "PGHOST"
	EnvPort     = "PGPORT"
	EnvDatabase = "PGDATABASE"
	EnvUser     = "PGUSER"
	EnvPassword = "PGPASSWORD"
	EnvPassfile = "PGPASSFILE"
	EnvSSLMode  = "PGSSLMODE"
)

// Credentials identify one database session. Resolved once per session and
// never mutated afterwards.
type Credentials struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	SSLMode  string
}

// Options carries caller-supplied values and connection defaults. Explicit
// values always win over the environment and the pgpass file.
type Options struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	SSLMode  string

	// PgpassPath overrides the pgpass location ($PGPASSFILE / ~/.pgpass).
	PgpassPath string
}

// Resolver resolves Credentials. The prompt and terminal-detection hooks are
// injectable so tests can run without a TTY.
type Resolver struct {
	// Interactive reports whether an interactive session is attached.
	Interactive func() bool
	// PromptUser asks for a username, offering def as the default.
	PromptUser func(def string) (string, error)
	// PromptPassword asks for a password without echoing it.
	PromptPassword func() (string, error)
}

// NewResolver returns a Resolver wired to the real terminal.
func NewResolver() *Resolver {
	return &Resolver{
		Interactive:    stdinIsTerminal,
		PromptUser:     promptUser,
		PromptPassword: promptPassword,
	}
}

// Resolve produces Credentials or an auth_config error when no usable
// combination of host, port, and username can be found.
func (r *Resolver) Resolve(opts Options) (Credentials, error) {
	c := Credentials{
		Username: firstNonEmpty(opts.Username, os.Getenv(EnvUser)),
		Password: firstNonEmpty(opts.Password, os.Getenv(EnvPassword)),
		Host:     firstNonEmpty(opts.Host, os.Getenv(EnvHost)),
		Database: firstNonEmpty(opts.Database, os.Getenv(EnvDatabase)),
		SSLMode:  firstNonEmpty(opts.SSLMode, os.Getenv(EnvSSLMode)),
	}
	c.Port = opts.Port
	if c.Port == 0 {
		if p := os.Getenv(EnvPort); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return Credentials{}, dberr.Newf(dberr.AuthConfig, "invalid %s value %q", EnvPort, p)
			}
			c.Port = n
		}
	}

	if c.Host == "" || c.Port == 0 {
		return Credentials{}, dberr.New(dberr.AuthConfig,
			"no database host/port configured: pass them explicitly or set "+EnvHost+"/"+EnvPort)
	}

	// Username default follows the OS account, matching libpq.
	osUser := currentOSUser()
	if c.Username == "" && !r.interactive() {
		if osUser == "" {
			return Credentials{}, dberr.New(dberr.AuthConfig,
				"no username configured and no interactive session attached")
		}
		c.Username = osUser
	}

	if c.Username != "" && c.Password == "" {
		if pw, ok := lookupPgpass(pgpassPath(opts.PgpassPath), c.Host, c.Port, c.Database, c.Username); ok {
			c.Password = pw
			return c, nil
		}
	}

	if c.Password != "" && c.Username != "" {
		return c, nil
	}

	if !r.interactive() {
		return Credentials{}, dberr.New(dberr.AuthConfig,
			"no password available from environment or pgpass, and no interactive session attached")
	}

	if c.Username == "" {
		u, err := r.PromptUser(osUser)
		if err != nil {
			return Credentials{}, dberr.Wrap(dberr.AuthConfig, "reading username", err)
		}
		c.Username = u
		// A freshly entered username may have a pgpass entry after all.
		if pw, ok := lookupPgpass(pgpassPath(opts.PgpassPath), c.Host, c.Port, c.Database, c.Username); ok {
			c.Password = pw
			return c, nil
		}
	}
	if c.Password == "" {
		pw, err := r.PromptPassword()
		if err != nil {
			return Credentials{}, dberr.Wrap(dberr.AuthConfig, "reading password", err)
		}
		c.Password = pw
	}
	return c, nil
}

// lookupPgpass finds a password via the pgpass file, honoring `*` wildcards
// in any field. A missing or unreadable file is simply a miss.
func lookupPgpass(path string, host string, port int, database, username string) (string, bool) {
	if path == "" {
		return "", false
	}
	pf, err := pgpassfile.ReadPassfile(path)
	if err != nil {
		return "", false
	}
	pw := pf.FindPassword(host, strconv.Itoa(port), database, username)
	return pw, pw != ""
}

func pgpassPath(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv(EnvPassfile); p != "" {
		return p
	}
	return defaultPgpassPath()
}

func currentOSUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	// Windows reports DOMAIN\user; only the short name is useful here.
	if i := strings.LastIndexByte(u.Username, '\\'); i >= 0 {
		return u.Username[i+1:]
	}
	return u.Username
}

func (r *Resolver) interactive() bool {
	if r.Interactive == nil {
		return false
	}
	return r.Interactive()
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func promptUser(def string) (string, error) {
	prompt := "Enter your datashelf username: "
	if def != "" {
		prompt = fmt.Sprintf("Enter your datashelf username [%s]: ", def)
	}
	fmt.Print(prompt)
	var name string
	if _, err := fmt.Scanln(&name); err != nil && name == "" && def == "" {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	terminal.ClearPreviousLines(len(prompt) + len(name))
	fmt.Printf("Username: %s\n", name)
	return name, nil
}

func promptPassword() (string, error) {
	fmt.Print("Enter your password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
