// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"strings"

	"datashelf/cli/internal/logging"
	"datashelf/cli/internal/query"
	"datashelf/cli/internal/shelf"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	querySQL     string
	queryColumns []string
	queryFilters []string
	queryLimit   int
	queryOffset  int
	queryChunk   int
	queryStream  bool
	queryMaxShow int
)

// queryCmd executes raw SQL or a templated table request and renders the
// result. In stream mode each chunk is printed as it is fetched, keeping
// memory bounded on very large results.
var queryCmd = &cobra.Command{
	Use:   "query [<library> <table>]",
	Short: "Run a query and print the result",
	Long: `Run either raw SQL (--sql) or a templated table request built from a
library and table name. Filter values are always bound as parameters,
never spliced into the SQL text.

Examples:
  datashelf query --sql "select cik, fdate from secdata.dforms limit 10"
  datashelf query crsp dsf --columns permno,caldt,ret --filter "ret>0.05" --limit 100`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args)
		if err != nil {
			return err
		}

		return withConn(cmd.Context(), func(conn *shelf.Conn) error {
			ctx := cmd.Context()
			cursor.Hide()
			defer cursor.Show()

			if queryStream {
				chunks, err := conn.Stream(ctx, req)
				if err != nil {
					pterm.Println(logging.PresentError("", err))
					return err
				}
				defer chunks.Close()
				total := 0
				for chunks.Next() {
					renderFrame(chunks.Frame(), queryMaxShow)
					total += chunks.Frame().NumRows()
				}
				if err := chunks.Err(); err != nil {
					pterm.Println(logging.PresentError("", err))
					return err
				}
				pterm.Printf("%d rows total\n", total)
				return nil
			}

			spinner, _ := pterm.DefaultSpinner.Start("Running query...")
			frame, err := conn.Run(ctx, req)
			if err != nil {
				spinner.Fail("Query failed")
				pterm.Println(logging.PresentError("", err))
				return err
			}
			spinner.Success(pterm.Sprintf("%d rows", frame.NumRows()))
			renderFrame(frame, queryMaxShow)
			return nil
		})
	},
}

// buildRequest translates command arguments and flags into a Request.
func buildRequest(args []string) (query.Request, error) {
	if querySQL != "" {
		if len(args) > 0 {
			return query.Request{}, errors.New("--sql and a library/table argument are mutually exclusive")
		}
		req := query.RawRequest(querySQL)
		req.ChunkSize = queryChunk
		return req, nil
	}
	if len(args) != 2 {
		return query.Request{}, errors.New("provide --sql or a <library> <table> pair")
	}

	req := query.TableRequest(args[0], args[1])
	req.Columns = queryColumns
	req.Offset = queryOffset
	req.ChunkSize = queryChunk
	if queryLimit >= 0 {
		req.Limit = queryLimit
	}
	for _, raw := range queryFilters {
		f, err := parseFilter(raw)
		if err != nil {
			return query.Request{}, err
		}
		req.Filters = append(req.Filters, f)
	}
	return req, nil
}

// filterOps is ordered so two-character operators match before their
// single-character prefixes.
var filterOps = []string{"<=", ">=", "!=", "<>", "=", "<", ">"}

// parseFilter splits expressions like "ret>0.05" or "comnam=ACME" into a
// bound filter. The value stays a string; the database casts it against
// the column type.
func parseFilter(raw string) (query.Filter, error) {
	for _, op := range filterOps {
		if i := strings.Index(raw, op); i > 0 {
			col := strings.TrimSpace(raw[:i])
			val := strings.TrimSpace(raw[i+len(op):])
			if col == "" || val == "" {
				break
			}
			return query.Filter{Column: col, Op: op, Value: val}, nil
		}
	}
	return query.Filter{}, errors.New("invalid --filter, expected column<op>value (e.g. \"ret>0.05\")")
}

func init() {
	rootCmd.AddCommand(queryCmd)
	fl := queryCmd.Flags()
	fl.StringVar(&querySQL, "sql", "", "Raw SQL to execute")
	fl.StringSliceVar(&queryColumns, "columns", nil, "Columns to select (default all)")
	fl.StringArrayVar(&queryFilters, "filter", nil, "Row filter, repeatable (e.g. \"ret>0.05\")")
	fl.IntVar(&queryLimit, "limit", -1, "Maximum rows to fetch (server-side LIMIT)")
	fl.IntVar(&queryOffset, "offset", 0, "Rows to skip before fetching")
	fl.IntVar(&queryChunk, "chunk", 0, "Rows per fetch chunk (default 100000)")
	fl.BoolVar(&queryStream, "stream", false, "Print each chunk as it is fetched")
	fl.IntVar(&queryMaxShow, "max-display", 50, "Maximum rows to print per table (0 = all)")
}
