package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/sbd/pkg/inquisitor"
	"github.com/cuemby/sbd/pkg/log"
	"github.com/cuemby/sbd/pkg/metrics"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate, arm, and supervise servants on every configured disk until an exit is requested",
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics.SetVersion(Version)
		log.Logger = log.Logger.With().Str("run_id", uuid.NewString()).Logger()

		inq := inquisitor.New(&cfg, &inquisitor.ProcessSpawner{Cfg: &cfg})

		log.Info("validating disk set")
		if err := inq.Validate(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}

		// Daemonize only after Phase A succeeds: a condition that breaks
		// quorum or timeout consistency is fatal and must be reported on
		// the operator's terminal, never silently re-discovered by a
		// detached child whose stderr points at /dev/null.
		if cfg.Daemonize {
			if err := inquisitor.Daemonize(); err != nil {
				return fmt.Errorf("daemonize: %w", err)
			}
		}

		log.Info("arming watchdog")
		if err := inq.Arm(); err != nil {
			return fmt.Errorf("arm: %w", err)
		}

		var srv *http.Server
		if cfg.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			srv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
			go func() {
				log.Logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Logger.Error().Err(err).Msg("metrics server stopped")
				}
			}()
		}

		log.Info("watching servants")
		err := inq.Watch()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}

		return err
	},
}
