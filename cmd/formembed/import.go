package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formembed/internal/catalog"
)

func newImportCmd(flags *globalFlags) *cobra.Command {
	var (
		opts   catalog.ImportOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "import-openapi <file-or-url>",
		Short: "Convert OpenAPI request bodies into a form catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(cmd)
			if err != nil {
				return err
			}
			opts.Logger = logger
			opts.Timeout = 30 * time.Second

			result, err := catalog.ImportOpenAPI(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			for _, skip := range result.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", skip.Operation, skip.Reason)
			}
			if len(result.Forms) == 0 {
				return fmt.Errorf("no form-shaped operations in %s", args[0])
			}

			data, err := catalog.Marshal(result.Forms)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d forms to %s\n", len(result.Forms), output)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "mark imported forms as published")
	cmd.Flags().StringSliceVar(&opts.Operations, "operation", nil, "limit the import to these operation or form ids")
	cmd.Flags().BoolVar(&opts.ResolveReferences, "resolve-refs", false, "allow external $refs and validate the document")
	cmd.Flags().BoolVar(&opts.AllowHTTP, "allow-http", true, "allow fetching the document over HTTP")
	cmd.Flags().StringVarP(&output, "output", "o", "", "catalog file to write (stdout if empty)")
	return cmd
}
