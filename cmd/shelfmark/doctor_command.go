package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/journal"
	"shelfmark/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment the store depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logCheck := preflight.CheckDataDir(cfg.Paths.LogDir)
			logCheck.Name = "Log directory"
			results := []preflight.Result{
				preflight.CheckDataDir(cfg.Paths.DataDir),
				logCheck,
				preflight.CheckFreeSpace(cfg.Paths.DataDir, uint64(cfg.Store.MinFreeMiB)*1024*1024),
			}

			results = append(results, checkStore(ctx, cmd))
			if cfg.Journal.Enabled {
				results = append(results, checkJournal(cfg.Journal.Path))
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, result := range results {
				mark := "ok"
				if !result.Passed {
					mark = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%-4s %s: %s\n", mark, result.Name, result.Detail)
			}
			if failed > 0 {
				return fmt.Errorf("%d preflight check(s) failed", failed)
			}
			return nil
		},
	}
}

func checkStore(ctx *commandContext, cmd *cobra.Command) preflight.Result {
	result := preflight.Result{Name: "store"}
	st, err := ctx.openStore()
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	if _, err := st.Snapshot(cmd.Context()); err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = st.Path()
	return result
}

func checkJournal(path string) preflight.Result {
	result := preflight.Result{Name: "journal"}
	j, err := journal.Open(path)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	defer j.Close()
	result.Passed = true
	result.Detail = path
	return result
}
