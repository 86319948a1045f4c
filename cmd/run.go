package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/application/scheduler"
	"github.com/example/visa-rescheduler/internal/attempts"
	"github.com/example/visa-rescheduler/internal/metrics"
	"github.com/example/visa-rescheduler/internal/web"
)

func newRunCmd(g *globalOptions) *cobra.Command {
	var (
		tf         targetFlags
		migrateUp  bool
		statusAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the portal until the appointment is moved to an earlier date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd)
			if err != nil {
				return err
			}
			if err := tf.apply(cmd, &cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("status-addr") {
				cfg.StatusAddr = statusAddr
			}
			req, err := cfg.Request()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			launcher := newLauncher(cfg, log)
			defer func() {
				if err := launcher.Stop(); err != nil {
					log.WithError(err).Warn("stop playwright")
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			s := &scheduler.Scheduler{
				Attempts: newRescheduler(cfg, launcher, log),
				Delay:    cfg.RetryDelay,
				Observer: metrics.NewAttemptMetrics(reg),
				Logger:   log,
			}

			var history web.HistoryLister
			if cfg.DatabaseURL != "" {
				d, err := openDB(ctx, cfg, migrateUp)
				if err != nil {
					return err
				}
				defer d.Close()
				repo := attempts.NewRepo(d)
				s.Recorder = repo
				history = repo
			}

			if cfg.StatusAddr != "" {
				ws := &web.Server{Status: s, History: history, Gatherer: reg, Logger: log, StartedAt: time.Now()}
				go func() {
					if err := web.Start(ctx, cfg.StatusAddr, ws.Routes(), log); err != nil {
						log.WithError(err).Error("status listener stopped")
					}
				}()
			}

			err = s.Run(ctx, req)
			if errors.Is(err, context.Canceled) {
				log.Info("interrupted, exiting")
				return nil
			}
			return err
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup when DATABASE_URL is set")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "listen address for /healthz, /status, /attempts and /metrics (STATUS_ADDR)")
	return cmd
}
