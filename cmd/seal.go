package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/crypto"
)

func newSealCmd(g *globalOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt the portal password with CRED_ENC_KEY for VISA_PASSWORD_SEALED",
		Long:  "Encrypt the portal password with CRED_ENC_KEY. Without --password the first line of stdin is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			if len(cfg.CredEncKey) == 0 {
				return fmt.Errorf("CRED_ENC_KEY is required (see `visasched keys`)")
			}
			if !cmd.Flags().Changed("password") {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password is empty")
			}

			s, err := crypto.New(cfg.CredEncKey)
			if err != nil {
				return fmt.Errorf("CRED_ENC_KEY: %w", err)
			}
			sealed, err := s.SealString(password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export VISA_PASSWORD_SEALED=%s\n", sealed)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to seal (prefer stdin)")
	return cmd
}
