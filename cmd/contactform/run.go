package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/pkg/renderers/tui"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/submit"
)

func (a *app) newRunCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill and submit the form interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

func (a *app) runInteractive(cmd *cobra.Command, metricsAddr string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics, err := submit.NewMetrics(reg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		stop, err := a.serveMetrics(metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	renderer := tui.New(
		tui.WithOutput(cmd.OutOrStdout()),
		tui.WithTheme(tui.Theme{SuccessPrefix: "✓ ", ErrorPrefix: "✗ "}),
	)
	s, err := session.New(cfg,
		session.WithSink(renderer.Sink()),
		session.WithLogger(a.log().Named("session")),
		session.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := renderer.Run(cmd.Context(), s)
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	if result.SubmissionID != "" {
		a.log().Info("form session finished",
			zap.String("phase", result.Phase.String()),
			zap.String("submission_id", result.SubmissionID))
	}
	return nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log().Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return func() { _ = srv.Close() }, nil
}
