// Package dberr defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error
// kinds and human-friendly messages, so calling code can distinguish "fix your
// credentials" from "fix your SQL" from "that table doesn't exist".
//
// Errors raised while executing SQL carry the offending statement alongside the
// database-reported message, which keeps multi-library research queries debuggable.
package dberr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// AuthConfig indicates that no usable credential combination could be
	// resolved, or that the pgpass file has unsafe permissions.
	AuthConfig Kind = "auth_config"
	// Connection indicates the session could not be opened or re-established
	// after one retry.
	Connection Kind = "connection"
	// Query indicates the database rejected the SQL: syntax, permission, or
	// constraint violation.
	Query Kind = "query"
	// UnknownLibrary indicates a metadata lookup against a schema the user
	// cannot see.
	UnknownLibrary Kind = "unknown_library"
	// UnknownTable indicates a metadata lookup against a non-existent table.
	UnknownTable Kind = "unknown_table"
)

// E wraps an error with kind, human-friendly message, and the SQL that
// triggered it (when applicable).
type E struct {
	Kind    Kind
	Message string
	SQL     string
	Err     error
}

func (e *E) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.SQL != "" {
		msg = fmt.Sprintf("%s\n  sql: %s", msg, e.SQL)
	}
	return msg
}

func (e *E) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *E              { return &E{Kind: kind, Message: msg} }
func Wrap(kind Kind, msg string, err error) *E  { return &E{Kind: kind, Message: msg, Err: err} }
func Newf(kind Kind, format string, a ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// WrapSQL attaches the statement that produced err.
func WrapSQL(kind Kind, msg, sql string, err error) *E {
	return &E{Kind: kind, Message: msg, SQL: sql, Err: err}
}

// IsKind reports whether err (or anything it wraps) is an E of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *E
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		if e.Err == nil {
			return false
		}
		err = e.Err
	}
	return false
}
