// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"datashelf/cli/internal/logging"
	"datashelf/cli/internal/shelf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// tablesCmd lists the tables within one library.
var tablesCmd = &cobra.Command{
	Use:   "tables <library>",
	Short: "List tables in a library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library := args[0]
		return withConn(cmd.Context(), func(conn *shelf.Conn) error {
			tbls, err := conn.Tables(cmd.Context(), library)
			if err != nil {
				pterm.Println(logging.PresentError("", err))
				return err
			}
			pterm.Printf("%d tables in %s\n", len(tbls), library)
			for _, tbl := range tbls {
				pterm.Println("  " + tbl)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
