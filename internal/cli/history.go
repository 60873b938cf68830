package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// HistoryCmd lists journaled requests.
func HistoryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently submitted captchas from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := opts.openJournal()
			if err != nil {
				return err
			}
			if j == nil {
				return fmt.Errorf("journal disabled")
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No captchas recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-12s %-10s %-8s %-20s %s\n", "ID", "STATUS", "FEEDBACK", "SUBMITTED", "ANSWER")
			for _, e := range entries {
				fmt.Fprintf(out, "%-12s %-10s %-8s %-20s %s\n",
					e.ID, statusColor(e.Status), feedbackName(e.Feedback),
					e.CreatedAt.Local().Format(time.DateTime), e.Answer)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 = all)")
	return cmd
}

func statusColor(status string) string {
	switch status {
	case "solved":
		return color.New(color.FgGreen).Sprint(status)
	case "pending":
		return color.New(color.FgYellow).Sprint(status)
	case "failed", "timed_out":
		return color.New(color.FgRed).Sprint(status)
	}
	return status
}
