package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelfmark/internal/journal"
	"shelfmark/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reconcile <snapshot.csv>",
		Short: "Merge an external registrar snapshot into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer file.Close()

			st, err := ctx.openStore()
			if err != nil {
				return err
			}

			var opts []reconcile.ImporterOption
			if cfg.Journal.Enabled {
				j, err := journal.Open(cfg.Journal.Path)
				if err != nil {
					return err
				}
				defer j.Close()
				opts = append(opts, reconcile.WithJournal(j))
			}
			importer, err := reconcile.NewImporter(st, ctx.ensureLogger(), opts...)
			if err != nil {
				return err
			}

			result, err := importer.ImportSnapshot(cmd.Context(), file)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %d, updated %d, skipped %d, conflicts %d\n",
				result.Added, result.Updated, result.Skipped, len(result.Conflicts))
			for _, conflict := range result.Conflicts {
				fmt.Fprintf(out, "conflict: %s\n", conflict.Error())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}
