package dberr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want []string
	}{
		{
			name: "kind and message",
			err:  New(AuthConfig, "no usable credentials"),
			want: []string{"auth_config", "no usable credentials"},
		},
		{
			name: "wrapped cause",
			err:  Wrap(Connection, "session lost", errors.New("broken pipe")),
			want: []string{"connection", "session lost", "broken pipe"},
		},
		{
			name: "sql context",
			err:  WrapSQL(Query, "syntax error", "selct 1", errors.New("42601")),
			want: []string{"query", "syntax error", "selct 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, frag := range tt.want {
				if !strings.Contains(got, frag) {
					t.Errorf("Error() = %q, missing %q", got, frag)
				}
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	base := Wrap(Query, "rejected", errors.New("permission denied"))
	wrapped := fmt.Errorf("running request: %w", base)

	if !IsKind(wrapped, Query) {
		t.Error("IsKind() = false for wrapped query error")
	}
	if IsKind(wrapped, Connection) {
		t.Error("IsKind() matched the wrong kind")
	}
	if IsKind(errors.New("plain"), Query) {
		t.Error("IsKind() matched a plain error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(Connection, "open failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not reach the cause")
	}
}
