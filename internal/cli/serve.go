package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/goGate/httpapi"
	"github.com/MrEthical07/goGate/metrics/export/prometheus"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions, addr string) error {
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	b, err := rt.builder(rt.settings.EngineConfig())
	if err != nil {
		return err
	}
	engine, err := b.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	s := rt.settings
	if addr == "" {
		addr = s.Server.Addr
	}

	apiOpts := httpapi.Options{
		SessionRate:  s.Server.SessionRate,
		SessionBurst: s.Server.SessionBurst,
		TrustProxy:   s.Server.TrustProxy,
		Logger:       rt.logger,
	}
	if s.Metrics.Enabled {
		apiOpts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(engine, apiOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	report := engine.SecurityReport()
	rt.logger.Info("gogate listening",
		"addr", addr,
		"version", version,
		"store", s.Store.Backend,
		"admin_rate_limit", report.AdminRateLimitActive,
		"metrics", s.Metrics.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.Server.ShutdownTimeout))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
