package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for savestat.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "savestat",
		Short: "Inventory report for factory game save files",
		Long: `savestat decodes factory-building save files and counts the buildings
placed in the world, grouped into machines, extractors, generators, logistics,
storage, power, transport and vehicles.

Reports are written as JSON by default. Every successful parse is kept in a
local history database so that later saves of the same session can be
compared with 'savestat history'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
