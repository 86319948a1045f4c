package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// exitError carries a process exit code without printing anything extra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func NewRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "visasched",
		Short:         "Polls the visa appointment portal and moves an appointment to an earlier date",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "optional dotenv file; existing environment wins")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "text or json (overrides LOG_FORMAT)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newSealCmd(g))
	root.AddCommand(newInstallCmd())
	root.AddCommand(newRunCmd(g))
	root.AddCommand(newAttemptCmd(g))
	root.AddCommand(newCheckLoginCmd(g))
	root.AddCommand(newHistoryCmd(g))
	root.AddCommand(newMigrateCmd(g))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
