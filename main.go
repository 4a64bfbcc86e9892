// Package main is the entry point for the datashelf CLI.
package main

import (
	"datashelf/cli/cmd"
)

func main() {
	cmd.Execute()
}
