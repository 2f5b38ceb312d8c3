package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/slant/internal/storage"
)

type historyFlags struct {
	limit   int
	subject string
	failed  bool
}

func (a *app) historyCmd() *cobra.Command {
	var flags historyFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runHistory(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flags.limit, "limit", "n", 20, "Maximum number of runs to list")
	f.StringVar(&flags.subject, "subject", "", "Only runs with this query subject")
	f.BoolVar(&flags.failed, "failed", false, "Only runs that aborted")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, flags historyFlags) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	backend, err := openHistory(cmd.Context(), cfg.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if backend == nil {
		return fmt.Errorf("run history is disabled; set history.backend in the config file")
	}
	defer backend.Close()

	filter := storage.Filter{Subject: flags.subject, Limit: flags.limit}
	if flags.failed {
		filter.Failed = &flags.failed
	}
	runs, err := backend.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tID\tSUBJECT\tARTICLES\tSCORED\tFAILED\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.ID, r.Subject, r.ArticleCount, r.ScoredCount, r.FailedCount,
			r.Duration.Round(10*time.Millisecond), r.Error)
	}
	return w.Flush()
}
