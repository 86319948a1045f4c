package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/attempts"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		limit   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded attempts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := openDB(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer d.Close()

			repo := attempts.NewRepo(d)
			out := cmd.OutOrStdout()
			if summary {
				counts, err := repo.Summary(ctx)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(counts))
				for k := range counts {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "%s=%d\n", k, counts[k])
				}
				return nil
			}

			as, err := repo.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			for _, a := range as {
				found := "-"
				if a.FoundDate != nil {
					found = a.FoundDate.Format("2006-01-02")
				}
				fmt.Fprintf(out, "run=%s attempt=%d started=%s outcome=%s kind=%s found=%s took=%s reason=%q\n",
					a.RunID, a.Attempt, a.StartedAt.Format(time.RFC3339), a.Outcome, a.FailureKind, found,
					a.Duration().Round(time.Millisecond), a.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of attempts to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "print counts per outcome instead")
	return cmd
}
