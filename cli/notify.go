// ABOUTME: Notification CLI commands
// ABOUTME: Runs the daily expiry check once or as a scheduled daemon with metrics
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/expirytrack/notify"
)

func (a *app) notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Run expiry notifications",
	}
	cmd.AddCommand(a.notifyRunCmd(), a.notifyDaemonCmd())
	return cmd
}

func printSummary(out io.Writer, s notify.Summary) {
	_, _ = fmt.Fprintf(out, "✓ Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(out, "  Processed: %d  Due: %d\n", s.Processed, s.Due)
	_, _ = fmt.Fprintf(out, "  Delivered: %d  Failed: %d  Skipped: %d  Duplicates: %d\n",
		s.Delivered, s.Failed, s.Skipped, s.Duplicates)
}

func (a *app) notifyRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daily notification check once",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := a.runner()
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func (a *app) notifyDaemonCmd() *cobra.Command {
	var runNow bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the notification check every day at notify.time",
		Long: `Run the notification check every day at the configured time and timezone.
Runs that are missed while the daemon is down are skipped. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner, err := a.runner()
			if err != nil {
				return err
			}
			hour, minute, err := a.cfg.Notify.Clock()
			if err != nil {
				return err
			}
			location, err := a.cfg.Notify.Location()
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				stopMetrics := a.serveMetrics(metricsAddr)
				defer stopMetrics()
			}

			a.logger.Info("Notification daemon started",
				zap.String("time", a.cfg.Notify.Time),
				zap.String("timezone", location.String()),
				zap.Bool("run_now", runNow),
			)
			return notify.NewScheduler(runner.Run, hour, minute, location, a.logger).Start(ctx, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "Also run once at start-up")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// serveMetrics exposes /metrics in the background and returns a shutdown func.
func (a *app) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	a.logger.Info("Serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
