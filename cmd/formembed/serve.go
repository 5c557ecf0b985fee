package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-formembed/internal/catalog"
	"github.com/goliatone/go-formembed/internal/config"
	"github.com/goliatone/go-formembed/internal/httpapi"
	"github.com/goliatone/go-formembed/internal/logging"
	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/internal/store/memory"
	"github.com/goliatone/go-formembed/internal/store/sqlite"
	"github.com/goliatone/go-formembed/pkg/theme"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		configPath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the public forms API and embed endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			if flags.logFormat != "" {
				cfg.Log.Format = flags.logFormat
			}
			logger, _, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			listener, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			return serve(cmd.Context(), cfg, listener, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	return cmd
}

// serve runs until ctx is cancelled, then drains in-flight requests within
// the configured grace period.
func serve(ctx context.Context, cfg config.Config, listener net.Listener, logger *zap.Logger) error {
	defer listener.Close()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	var watcher *catalog.Watcher
	if cfg.Catalog.Path != "" {
		watcher, err = catalog.NewWatcher(cfg.Catalog.Path, st.Forms(),
			catalog.WithPrune(cfg.Catalog.Prune),
			catalog.WithWatchLogger(logger.Named("catalog")),
		)
		if err != nil {
			return err
		}
		report, err := watcher.Load(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		logger.Info("catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Strings("forms", report.Upserted))
	}

	themes := theme.NewCatalog()
	if cfg.Theme.Dir != "" {
		loaded, err := themes.LoadFS(os.DirFS(cfg.Theme.Dir))
		if err != nil {
			return err
		}
		logger.Info("themes loaded", zap.String("dir", cfg.Theme.Dir), zap.Strings("themes", loaded))
	}
	themes.SetDefaults(cfg.Theme.Name, cfg.Theme.Variant)

	submitRate := rate.Limit(cfg.Server.SubmitRate)
	if cfg.Server.SubmitRate == 0 {
		submitRate = -1
	}
	api, err := httpapi.New(httpapi.Config{
		Forms:          st.Forms(),
		Submissions:    st.Submissions(),
		Themes:         themes,
		Logger:         logger.Named("http"),
		MaxBodyBytes:   int64(cfg.Server.MaxBodySize),
		SubmitRate:     submitRate,
		SubmitBurst:    cfg.Server.SubmitBurst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AssetBase:      cfg.Server.AssetBase,
		APIBase:        cfg.Server.PublicURL,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout.Std(),
		WriteTimeout:      cfg.Server.WriteTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if watcher != nil && cfg.Catalog.Watch {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownGrace.Std())
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Path)
	default:
		return memory.New(), nil
	}
}
