package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ninekw "github.com/anatolykoptev/go-9kw"
	"github.com/anatolykoptev/go-9kw/internal/journal"
)

// BalanceCmd prints the remaining credits.
func BalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show remaining 9kw.eu credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			credits, err := client.Balance(cmd.Context())
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credits: %d (~%d captchas)\n", credits, credits/ninekw.MinCreditsPerSolve)
			return nil
		},
	}
}

// SolveCmd uploads an image file and waits for the answer.
func SolveCmd(opts *options) *cobra.Command {
	var (
		prio    int
		timeout int
		wait    int
		noWait  bool
	)

	cmd := &cobra.Command{
		Use:   "solve <image-file>",
		Short: "Upload a captcha image and wait for the answer",
		Long: `Upload a captcha image (gif/jpg/png, raw or base64) and wait for the answer.

Examples:
  ninekw solve captcha.png
  ninekw solve captcha.png --prio 10 --timeout 300
  ninekw solve captcha.png --no-wait   # print the id and exit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			j, err := opts.openJournal()
			if err != nil {
				return err
			}
			if j != nil {
				defer j.Close()
			}

			ctx := cmd.Context()
			req, err := client.Submit(ctx, image, ninekw.WithPriority(prio), ninekw.WithMaxTimeout(timeout))
			if err != nil {
				return err
			}
			record(ctx, j, req)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Captcha id: %s\n", req.ID)
			if noWait {
				return nil
			}

			answer, outcome, err := client.WaitForResult(ctx, req, wait)
			record(ctx, j, req)
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", color.New(color.FgRed).Sprint("✗"), outcome)
				return err
			}
			fmt.Fprintf(out, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), answer)
			return nil
		},
	}

	cmd.Flags().IntVar(&prio, "prio", 5, "priority 1-10 (costs extra credits)")
	cmd.Flags().IntVar(&timeout, "timeout", ninekw.MinMaxTimeout, "max seconds the service keeps the captcha open (60-3999)")
	cmd.Flags().IntVar(&wait, "wait", 0, "total seconds to wait for the answer (default: --timeout)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "only upload, do not wait")

	return cmd
}

// record journals req, logging instead of failing.
func record(ctx context.Context, j *journal.Journal, req *ninekw.SolveRequest) {
	if j == nil || req == nil {
		return
	}
	if err := j.Record(ctx, req); err != nil {
		slog.Warn("journal write failed", slog.String("id", req.ID), slog.Any("error", err))
	}
}
