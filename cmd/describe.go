// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"datashelf/cli/internal/logging"
	"datashelf/cli/internal/shelf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// describeCmd shows the column layout of a table plus its approximate
// row count.
var describeCmd = &cobra.Command{
	Use:   "describe <library> <table>",
	Short: "Show column names, types, and nullability for a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, table := args[0], args[1]
		return withConn(cmd.Context(), func(conn *shelf.Conn) error {
			ctx := cmd.Context()
			ts, err := conn.Describe(ctx, library, table)
			if err != nil {
				pterm.Println(logging.PresentError("", err))
				return err
			}

			if n, err := conn.RowCount(ctx, library, table); err == nil && n > 0 {
				pterm.Printf("Approximately %d rows in %s.%s\n", n, library, table)
			}

			data := pterm.TableData{{"name", "type", "nullable"}}
			for _, col := range ts.Columns {
				nullable := "no"
				if col.Nullable {
					nullable = "yes"
				}
				data = append(data, []string{col.Name, col.Type, nullable})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		})
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
