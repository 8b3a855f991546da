package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		bookID   string
		title    string
		date     string
		priority int
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "update <isbn>",
		Short: "Rewrite metadata on an existing assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields allocator.UpdateFields
			if cmd.Flags().Changed("book") {
				fields.BookID = &bookID
			}
			if cmd.Flags().Changed("title") {
				fields.Title = &title
			}
			if cmd.Flags().Changed("date") {
				fields.ScheduledDate = &date
			}
			if cmd.Flags().Changed("priority") {
				fields.Priority = &priority
			}
			if cmd.Flags().Changed("notes") {
				fields.Notes = &notes
			}
			if fields == (allocator.UpdateFields{}) {
				return fmt.Errorf("nothing to update; pass at least one of --book, --title, --date, --priority, --notes")
			}

			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				if err := alloc.Update(cmd.Context(), args[0], fields); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book identifier")
	cmd.Flags().StringVar(&title, "title", "", "Working title")
	cmd.Flags().StringVar(&date, "date", "", "Scheduled publication date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (1 is highest)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}
