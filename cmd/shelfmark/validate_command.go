package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/isbn"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <isbn>...",
		Short:       "Check ISBN-13 checksums",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var firstErr error
			for _, arg := range args {
				value := isbn.Normalize(arg)
				if isbn.Validate(value) {
					fmt.Fprintf(out, "%s valid\n", value)
					continue
				}
				fmt.Fprintf(out, "%s INVALID\n", arg)
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %q", isbn.ErrInvalidISBN, arg)
				}
			}
			return firstErr
		},
	}
}
