package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	formembed "github.com/goliatone/go-formembed"
	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/dom"
	"github.com/goliatone/go-formembed/pkg/renderers/tui"
	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
	"github.com/goliatone/go-formembed/pkg/theme"
	"github.com/goliatone/go-formembed/pkg/widget"
)

type apiFlags struct {
	baseURL string
	formID  string
}

func (a *apiFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.baseURL, "api", "http://localhost:8080", "base URL of the forms API")
	cmd.Flags().StringVar(&a.formID, "form", "", "form id to load")
}

func (a *apiFlags) client(flags *globalFlags, cmd *cobra.Command) (*client.Client, error) {
	logger, err := flags.logger(cmd)
	if err != nil {
		return nil, err
	}
	return formembed.NewClient(a.baseURL, client.WithLogger(logger), client.WithUserAgent("formembed-cli/"+version))
}

func newFillCmd(flags *globalFlags) *cobra.Command {
	api := &apiFlags{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill in and submit a form from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := api.client(flags, cmd)
			if err != nil {
				return err
			}
			logger, err := flags.logger(cmd)
			if err != nil {
				return err
			}
			w, err := formembed.Mount(cmd.Context(), c, api.formID, widget.WithLogger(logger))
			if err != nil {
				return err
			}
			defer w.Detach()

			host := tui.NewHost(
				tui.WithLogger(logger),
				tui.WithPromptDriver(tui.NewSurveyDriver(os.Stdin, stdoutFile(cmd))),
			)
			view, err := host.Fill(cmd.Context(), w)
			if err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "aborted, nothing was submitted")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submission %s recorded\n", view.SubmissionID)
			return nil
		},
	}
	api.bind(cmd)
	return cmd
}

func newMountCmd(flags *globalFlags) *cobra.Command {
	var (
		api      = &apiFlags{}
		pagePath string
	)
	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Upgrade every <clientt-form> on an HTML page and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := api.client(flags, cmd)
			if err != nil {
				return err
			}
			logger, err := flags.logger(cmd)
			if err != nil {
				return err
			}

			var page string
			switch {
			case pagePath == "-":
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				page = string(data)
			case pagePath != "":
				data, err := os.ReadFile(pagePath)
				if err != nil {
					return err
				}
				page = string(data)
			case api.formID != "":
				page = fmt.Sprintf(`<!doctype html><html><head></head><body><%s %s=%q></%s></body></html>`,
					vanilla.TagName, vanilla.FormIDAttr, api.formID, vanilla.TagName)
			default:
				return errors.New("either --page or --form is required")
			}

			doc, err := formembed.MountPage(cmd.Context(), page, dom.WidgetConfig{API: c, Logger: logger})
			if err != nil {
				return err
			}
			for _, w := range doc.Widgets() {
				w.Widget().Detach()
			}
			return doc.Render(cmd.OutOrStdout())
		},
	}
	api.bind(cmd)
	cmd.Flags().StringVar(&pagePath, "page", "", "HTML page to mount (- for stdin)")
	return cmd
}

func newRenderCmd(flags *globalFlags) *cobra.Command {
	var (
		api       = &apiFlags{}
		format    string
		themeName string
		variant   string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load a form and print it as a standalone HTML snippet or text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := api.client(flags, cmd)
			if err != nil {
				return err
			}
			registry, err := formembed.NewRegistry()
			if err != nil {
				return err
			}

			options := formembed.RenderOptions{Standalone: true, APIBase: api.baseURL, AssetBase: strings.TrimRight(api.baseURL, "/") + "/embed"}
			if format == vanilla.Name {
				cfg, err := theme.NewCatalog().RendererConfig(themeName, variant)
				if err != nil {
					return err
				}
				options.Theme = cfg
			}

			w, err := formembed.Mount(cmd.Context(), c, api.formID)
			if err != nil {
				return err
			}
			defer w.Detach()
			w.Wait()
			out, _, err := registry.Render(cmd.Context(), format, w.View(), options)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	api.bind(cmd)
	cmd.Flags().StringVar(&format, "format", vanilla.Name, "renderer to use (vanilla, text)")
	cmd.Flags().StringVar(&themeName, "theme", "", "theme name for HTML output")
	cmd.Flags().StringVar(&variant, "variant", "", "theme variant for HTML output")
	return cmd
}

func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return os.Stdout
}
