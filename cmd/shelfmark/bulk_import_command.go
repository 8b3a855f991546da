package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
	"shelfmark/internal/bulkload"
)

func newBulkImportCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bulk-import <csv>",
		Short: "Schedule a CSV batch of assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open batch file: %w", err)
			}
			defer file.Close()

			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				loader, err := bulkload.New(alloc, ctx.ensureLogger())
				if err != nil {
					return err
				}
				result, err := loader.Load(cmd.Context(), file)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scheduled %d, failed %d\n", result.Scheduled, result.Failed)
				for _, value := range result.ISBNs {
					fmt.Fprintln(out, value)
				}
				for _, rowErr := range result.Errors {
					fmt.Fprintf(out, "error: %s\n", rowErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}
