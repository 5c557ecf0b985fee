package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formembed/internal/catalog"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-catalog <file>...",
		Short: "Check catalog files without serving them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				defs, err := catalog.LoadFile(path)
				var issues *catalog.IssueError
				switch {
				case errors.As(err, &issues):
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d problems\n", path, len(issues.Issues))
					for _, issue := range issues.Issues {
						fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", issue)
					}
				case err != nil:
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				default:
					published := 0
					for _, def := range defs {
						if def.Published {
							published++
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d forms, %d published)\n", path, len(defs), published)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalogs invalid", failed, len(args))
			}
			return nil
		},
	}
}
