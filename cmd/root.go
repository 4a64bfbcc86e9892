// Copyright (c) 2025 Datashelf
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for datashelf.
// It implements subcommands for connection setup, metadata discovery, and
// query execution using the Cobra CLI framework, with a terminal UI built
// on pterm.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagHost     string
	flagPort     int
	flagDatabase string
	flagUsername string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "datashelf",
	Short:         "Client for the datashelf research database",
	Long: `Datashelf is a command-line client for a multi-library research database.
It discovers libraries, tables, and column schemas, and executes raw or
templated SQL with chunked, memory-bounded fetching.

Credentials resolve from flags, PG* environment variables, the pgpass
file, or an interactive prompt, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "Database host (default from config or PGHOST)")
	pf.IntVar(&flagPort, "port", 0, "Database port (default from config or PGPORT)")
	pf.StringVar(&flagDatabase, "dbname", "", "Database name (default from config or PGDATABASE)")
	pf.StringVarP(&flagUsername, "username", "u", "", "Database username (default from PGUSER or OS user)")
}
