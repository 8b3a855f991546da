package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var (
		bookID    string
		title     string
		date      string
		publisher string
		imprint   string
		priority  int
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule the next eligible ISBN for a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if publisher == "" {
				publisher = cfg.Allocation.DefaultPublisher
			}
			if imprint == "" {
				imprint = cfg.Allocation.DefaultImprint
			}
			if priority == 0 {
				priority = cfg.Allocation.DefaultPriority
			}

			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				value, err := alloc.Schedule(cmd.Context(), allocator.ScheduleRequest{
					BookID:        bookID,
					Title:         title,
					ScheduledDate: date,
					Publisher:     publisher,
					Imprint:       imprint,
					Priority:      priority,
					Notes:         notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "Book identifier")
	cmd.Flags().StringVar(&title, "title", "", "Working title")
	cmd.Flags().StringVar(&date, "date", "", "Scheduled publication date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Restrict to blocks of this publisher code")
	cmd.Flags().StringVar(&imprint, "imprint", "", "Restrict to blocks of this imprint code")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (1 is highest)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("book")

	return cmd
}
