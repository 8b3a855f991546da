package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/allocator"
)

func newReserveCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reserve <isbn>",
		Short: "Withhold an available ISBN from automatic allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				if err := alloc.Reserve(cmd.Context(), args[0], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the number is being held")
	return cmd
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "release <isbn>",
		Short: "Return a scheduled, assigned, or reserved ISBN to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAllocator(func(alloc *allocator.Allocator) error {
				if err := alloc.Release(cmd.Context(), args[0], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Released %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the number is being released")
	return cmd
}
