package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juliosaraiva/planlog/internal/parser"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List available log formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available log formats:")
			fmt.Fprintln(out)
			for _, p := range parser.NewRegistry().ListParsers() {
				fmt.Fprintf(out, "  %-12s  %s\n", p.Name, p.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Use -f/--format to force a specific format, or omit for auto-detection.")
			return nil
		},
	}
}
