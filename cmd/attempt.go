package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/attempts"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

// Exit codes of a single attempt.
const (
	exitBooked       = 0
	exitFailed       = 1
	exitNoBetterDate = 2
)

func outcomeExitCode(k appointment.OutcomeKind) int {
	switch k {
	case appointment.OutcomeBooked:
		return exitBooked
	case appointment.OutcomeNoBetterDate:
		return exitNoBetterDate
	default:
		return exitFailed
	}
}

func newAttemptCmd(g *globalOptions) *cobra.Command {
	var (
		tf     targetFlags
		record bool
	)

	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Run one reschedule attempt; exit 0 booked, 2 no earlier date, 1 failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd)
			if err != nil {
				return err
			}
			if err := tf.apply(cmd, &cfg); err != nil {
				return err
			}
			req, err := cfg.Request()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			launcher := newLauncher(cfg, log)
			defer func() { _ = launcher.Stop() }()

			out := newRescheduler(cfg, launcher, log).Execute(ctx, req)

			if record && cfg.DatabaseURL != "" {
				d, err := openDB(ctx, cfg, true)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := attempts.NewRepo(d).Record(ctx, uuid.New(), 1, req, out); err != nil {
					log.WithError(err).Warn("record attempt")
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s", out.Kind)
			if out.Found != nil {
				fmt.Fprintf(cmd.OutOrStdout(), " found=%s", out.Found)
			}
			if out.Reason != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " reason=%q", out.Reason)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			if code := outcomeExitCode(out.Kind); code != exitBooked {
				return exitError{code: code}
			}
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVar(&record, "record", true, "store the outcome when DATABASE_URL is set")
	return cmd
}
