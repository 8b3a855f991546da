package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelfmark/internal/registry"
	"shelfmark/internal/store"
)

func newAddBlockCommand(ctx *commandContext) *cobra.Command {
	var (
		prefix    string
		publisher string
		imprint   string
		start     int
		end       int
		nested    bool
	)

	cmd := &cobra.Command{
		Use:   "add-block",
		Short: "Register a purchased ISBN block",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var block registry.Block
				err := st.Mutate(cmd.Context(), func(state *registry.State) error {
					var err error
					block, err = registry.AddBlock(state, registry.AddBlockParams{
						Prefix:        prefix,
						PublisherCode: publisher,
						ImprintCode:   imprint,
						Start:         start,
						End:           end,
						Nested:        nested,
					})
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered block %s (%s %s, %d slots)\n",
					block.ID, block.Prefix, blockScope(block), block.Total())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "978", "ISBN prefix (978 or 979)")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Publisher code")
	cmd.Flags().StringVar(&imprint, "imprint", "", "Imprint code for an imprint-scoped block")
	cmd.Flags().IntVar(&start, "start", 0, "First sequence number (inclusive)")
	cmd.Flags().IntVar(&end, "end", 0, "Last sequence number (inclusive)")
	cmd.Flags().BoolVar(&nested, "nested", false, "Permit nesting inside a publisher-scoped block")
	_ = cmd.MarkFlagRequired("publisher")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newBlocksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List registered blocks with utilization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				state, err := st.Snapshot(cmd.Context())
				if err != nil {
					return err
				}

				type blockView struct {
					registry.Block
					Utilization registry.Utilization `json:"utilization"`
				}
				views := make([]blockView, 0, len(state.Blocks))
				for _, block := range state.SortedBlocks() {
					util, err := registry.BlockUtilization(state, block.ID)
					if err != nil {
						return err
					}
					views = append(views, blockView{Block: block, Utilization: util})
				}

				if asJSON {
					return writeJSON(cmd, views)
				}

				headers := []string{"BLOCK", "PREFIX", "SCOPE", "RANGE", "TOTAL", "USED", "RESERVED", "AVAILABLE", "NESTED"}
				rows := make([][]string, 0, len(views))
				for _, view := range views {
					rows = append(rows, []string{
						view.ID,
						view.Prefix,
						blockScope(view.Block),
						blockRange(view.Block),
						strconv.Itoa(view.Utilization.Total),
						strconv.Itoa(view.Utilization.Used),
						strconv.Itoa(view.Utilization.Reserved),
						strconv.Itoa(view.Utilization.Available),
						yesNo(view.Nested),
					})
				}
				printTable(cmd, headers, rows, []columnAlignment{
					alignLeft, alignLeft, alignLeft, alignLeft,
					alignRight, alignRight, alignRight, alignRight, alignLeft,
				})
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
