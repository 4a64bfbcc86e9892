// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"testing"

	"datashelf/cli/internal/query"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		raw     string
		want    query.Filter
		wantErr bool
	}{
		{raw: "ret>0.05", want: query.Filter{Column: "ret", Op: ">", Value: "0.05"}},
		{raw: "ret >= 0.05", want: query.Filter{Column: "ret", Op: ">=", Value: "0.05"}},
		{raw: "comnam=ACME CORP", want: query.Filter{Column: "comnam", Op: "=", Value: "ACME CORP"}},
		{raw: "permno!=10107", want: query.Filter{Column: "permno", Op: "!=", Value: "10107"}},
		{raw: "caldt<>1999-12-31", want: query.Filter{Column: "caldt", Op: "<>", Value: "1999-12-31"}},
		{raw: "ret>", wantErr: true},
		{raw: ">0.05", wantErr: true},
		{raw: "no operator here", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFilter(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseFilter(%q): expected error, got %+v", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFilter(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFilter(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestBuildRequestRawAndTable(t *testing.T) {
	querySQL = "select 1"
	defer func() { querySQL = "" }()

	req, err := buildRequest(nil)
	if err != nil {
		t.Fatalf("buildRequest raw: %v", err)
	}
	if req.SQL != "select 1" {
		t.Fatalf("SQL = %q", req.SQL)
	}

	if _, err := buildRequest([]string{"crsp", "dsf"}); err == nil {
		t.Fatal("expected error when --sql and args are both given")
	}

	querySQL = ""
	queryFilters = []string{"ret>0.05"}
	queryLimit = 100
	defer func() { queryFilters = nil; queryLimit = -1 }()

	req, err = buildRequest([]string{"crsp", "dsf"})
	if err != nil {
		t.Fatalf("buildRequest table: %v", err)
	}
	if req.Library != "crsp" || req.Table != "dsf" {
		t.Fatalf("target = %s.%s", req.Library, req.Table)
	}
	if req.Limit != 100 {
		t.Fatalf("Limit = %d", req.Limit)
	}
	if len(req.Filters) != 1 || req.Filters[0].Column != "ret" {
		t.Fatalf("Filters = %+v", req.Filters)
	}

	if _, err := buildRequest([]string{"crsp"}); err == nil {
		t.Fatal("expected error for a single positional argument")
	}
}
