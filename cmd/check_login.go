package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/application/usecases"
)

func newCheckLoginCmd(g *globalOptions) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "check-login",
		Short: "Sign in to the portal once and exit, without touching the appointment",
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

			check := usecases.CheckLogin{
				Sessions: launcher,
				SignIn: usecases.SignIn{
					Portal:         cfg.Portal(),
					ElementTimeout: cfg.ElementTimeout,
					Settle:         usecases.DefaultSettle,
				},
			}
			if err := check.Execute(ctx, req.Target.Region, req.Credentials); err != nil {
				return fmt.Errorf("check login: %w", err)
			}
			log.WithField("email", req.Credentials.Email).Info("signed in")
			return nil
		},
	}

	tf.register(cmd)
	return cmd
}
