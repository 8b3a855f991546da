package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shelfmark/internal/report"
	"shelfmark/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format   string
		output   string
		upcoming bool
		window   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("format %q: must be json or csv", format)
			}

			return ctx.withStore(func(st *store.Store) error {
				state, err := st.Snapshot(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer file.Close()
					out = file
				}

				if upcoming {
					list := report.Upcoming(state, time.Now().UTC(), window)
					if format == "json" {
						return report.WriteJSON(out, list)
					}
					return report.WriteUpcomingCSV(out, list)
				}

				availability := report.Availability(state)
				if format == "json" {
					return report.WriteJSON(out, availability)
				}
				return report.WriteCSV(out, availability)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Export the upcoming-assignments report")
	cmd.Flags().IntVar(&window, "window", 30, "Window in days for --upcoming")
	return cmd
}
