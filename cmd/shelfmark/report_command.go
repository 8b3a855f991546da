package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"shelfmark/internal/report"
	"shelfmark/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON   bool
		upcoming bool
		window   int
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Availability and upcoming-assignment reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				render := func() error {
					state, err := st.Snapshot(cmd.Context())
					if err != nil {
						return err
					}
					if upcoming {
						list := report.Upcoming(state, time.Now().UTC(), window)
						if asJSON {
							return writeJSON(cmd, list)
						}
						renderUpcoming(cmd, list, window)
						return nil
					}
					availability := report.Availability(state)
					if asJSON {
						return writeJSON(cmd, availability)
					}
					renderAvailability(cmd, availability)
					return nil
				}

				if err := render(); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				return watchStore(cmd, st.Path(), render)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "List scheduled assignments inside the window")
	cmd.Flags().IntVar(&window, "window", 30, "Window in days for --upcoming")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-render whenever the store changes")
	return cmd
}

func renderAvailability(cmd *cobra.Command, r report.AvailabilityReport) {
	headers := []string{"BLOCK", "SCOPE", "RANGE", "TOTAL", "USED", "SCHEDULED", "RESERVED", "AVAILABLE", "USED%"}
	rows := make([][]string, 0, len(r.Blocks)+1)
	for _, block := range r.Blocks {
		scope := block.PublisherCode
		if block.ImprintCode != "" {
			scope += "/" + block.ImprintCode
		}
		rows = append(rows, []string{
			block.BlockID,
			scope,
			fmt.Sprintf("%d-%d", block.Start, block.End),
			strconv.Itoa(block.Total),
			strconv.Itoa(block.Used),
			strconv.Itoa(block.Scheduled),
			strconv.Itoa(block.Reserved),
			strconv.Itoa(block.Available),
			formatPercent(block.PercentUsed),
		})
	}
	rows = append(rows, []string{
		"TOTAL", "", "",
		strconv.Itoa(r.Totals.Total),
		strconv.Itoa(r.Totals.Used),
		strconv.Itoa(r.Totals.Scheduled),
		strconv.Itoa(r.Totals.Reserved),
		strconv.Itoa(r.Totals.Available),
		formatPercent(r.PercentUsed),
	})
	printTable(cmd, headers, rows, []columnAlignment{
		alignLeft, alignLeft, alignLeft,
		alignRight, alignRight, alignRight, alignRight, alignRight, alignRight,
	})
}

func renderUpcoming(cmd *cobra.Command, list []report.UpcomingAssignment, window int) {
	if len(list) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No assignments scheduled in the next %d days\n", window)
		return
	}
	headers := []string{"DATE", "PRIORITY", "ISBN", "BOOK", "TITLE"}
	rows := make([][]string, 0, len(list))
	for _, entry := range list {
		rows = append(rows, []string{
			entry.ScheduledDate,
			strconv.Itoa(entry.Priority),
			entry.ISBN,
			orDash(entry.BookID),
			orDash(entry.Title),
		})
	}
	printTable(cmd, headers, rows, []columnAlignment{
		alignLeft, alignRight, alignLeft, alignLeft, alignLeft,
	})
}

// watchStore re-runs render whenever the store file changes, until
// interrupted. The watch sits on the parent directory because commits rename
// a temp file over the canonical path.
func watchStore(cmd *cobra.Command, storePath string, render func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start store watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(storePath), err)
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != storePath {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := render(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("store watcher: %w", err)
		}
	}
}
