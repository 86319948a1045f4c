package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the attempt history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd)
			if err != nil {
				return err
			}
			d, err := openDB(context.Background(), cfg, true)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			d.Close()
			log.Info("migrations applied")
			return nil
		},
	}
}
