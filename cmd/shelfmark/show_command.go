package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/isbn"
	"shelfmark/internal/journal"
	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON  bool
		history bool
	)

	cmd := &cobra.Command{
		Use:   "show <isbn>",
		Short: "Show the record and block for one ISBN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := isbn.Normalize(args[0])
			if !isbn.Validate(value) {
				return fmt.Errorf("%w: %q", isbn.ErrInvalidISBN, args[0])
			}

			return ctx.withStore(func(st *store.Store) error {
				state, err := st.Snapshot(cmd.Context())
				if err != nil {
					return err
				}

				record, materialized := state.Record(value)
				block, inBlock := state.BlockFor(value)

				status := registry.StatusAvailable
				if materialized {
					status = record.Status
				}

				if asJSON {
					view := map[string]any{
						"isbn13": value,
						"status": status,
					}
					if materialized {
						view["record"] = record
					}
					if inBlock {
						view["block"] = block
					}
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ISBN:    %s\n", value)
				fmt.Fprintf(out, "Status:  %s\n", status)
				if inBlock {
					fmt.Fprintf(out, "Block:   %s (%s %s, range %s)\n", block.ID, block.Prefix, blockScope(block), blockRange(block))
				} else {
					fmt.Fprintln(out, "Block:   outside every registered block")
				}
				if materialized {
					fmt.Fprintf(out, "Book:    %s\n", orDash(record.BookID))
					fmt.Fprintf(out, "Title:   %s\n", orDash(record.Title))
					fmt.Fprintf(out, "Scheduled: %s  Assigned: %s  Published: %s\n",
						orDash(record.ScheduledDate), formatDate(record.AssignedDate), formatDate(record.PublishedDate))
					if record.ReservationReason != "" {
						fmt.Fprintf(out, "Reserved: %s\n", record.ReservationReason)
					}
					if record.Notes != "" {
						fmt.Fprintf(out, "Notes:   %s\n", record.Notes)
					}
				}

				if !history {
					return nil
				}
				return ctx.withJournal(func(j *journal.Journal) error {
					entries, err := j.ForISBN(cmd.Context(), value)
					if err != nil {
						return err
					}
					if len(entries) == 0 {
						fmt.Fprintln(out, "History: none")
						return nil
					}
					fmt.Fprintln(out, "History:")
					for _, entry := range entries {
						fmt.Fprintf(out, "  %s  %-9s %s -> %s  (%s)\n",
							entry.CreatedAt.UTC().Format("2006-01-02 15:04"),
							entry.Op, orDash(entry.FromStatus), orDash(entry.ToStatus), entry.Actor)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	cmd.Flags().BoolVar(&history, "history", false, "Include the audit journal history")
	return cmd
}
