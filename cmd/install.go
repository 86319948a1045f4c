package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/infrastructure/browser"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download the playwright driver and chromium",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := browser.Install(); err != nil {
				return fmt.Errorf("install playwright: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "playwright driver and chromium installed")
			return nil
		},
	}
}
