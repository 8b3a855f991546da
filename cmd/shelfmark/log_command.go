package main

import (
	"github.com/spf13/cobra"

	"shelfmark/internal/journal"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON bool
		limit  int
		isbn   string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the audit journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(j *journal.Journal) error {
				var (
					entries []journal.Entry
					err     error
				)
				if isbn != "" {
					entries, err = j.ForISBN(cmd.Context(), isbn)
				} else {
					entries, err = j.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, entries)
				}

				headers := []string{"TIME", "OP", "ISBN", "FROM", "TO", "ACTOR", "DETAIL"}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
						entry.Op,
						entry.ISBN,
						orDash(entry.FromStatus),
						orDash(entry.ToStatus),
						entry.Actor,
						orDash(entry.Detail),
					})
				}
				printTable(cmd, headers, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&isbn, "isbn", "", "Show the full history of one ISBN")
	return cmd
}
