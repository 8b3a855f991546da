package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
)

func newAssignCommand(ctx *commandContext) *cobra.Command {
	var (
		bookID string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "assign <isbn>",
		Short: "Privately assign a specific ISBN immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				if err := alloc.AssignNow(cmd.Context(), args[0], allocator.AssignArgs{
					BookID: bookID,
					Title:  title,
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book identifier")
	cmd.Flags().StringVar(&title, "title", "", "Working title")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <isbn>",
		Short: "Mark an assigned ISBN as publicly reported (irreversible)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				if err := alloc.MarkPublished(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published %s\n", args[0])
				return nil
			})
		},
	}
}
