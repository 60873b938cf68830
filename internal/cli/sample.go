package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ninekw "github.com/anatolykoptev/go-9kw"
)

const (
	sampleURL    = "https://confluence.atlassian.com/download/attachments/216957808/captcha.png?version=1&modificationDate=1272411042125&api=v2"
	sampleAnswer = "viearer"
	samplePrio   = 10
)

// SampleCmd runs an end-to-end smoke test against the live service with a
// captcha whose answer is known.
func SampleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sample <wait-seconds>",
		Short: "Solve a known sample captcha end to end",
		Long: `Download a sample captcha with a known answer, upload it, wait for the
result and send positive or negative feedback depending on the answer.

Exits non-zero if the sample cannot be fetched, uploaded or solved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			waitSeconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("wait-seconds must be a number: %w", err)
			}
			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).Sprint("[OK]")

			fmt.Fprintln(out, "Fetching sample captcha...")
			fetch := opts.fetch
			if fetch == nil {
				fetch = fetchURL
			}
			image, err := fetch(sampleURL)
			if err != nil {
				return fmt.Errorf("fetch sample captcha: %w", err)
			}
			fmt.Fprintln(out, ok)

			client, err := opts.newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			credits, err := client.Balance(ctx)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			fmt.Fprintf(out, "Credits: %d\n", credits)
			if credits < ninekw.MinCreditsPerSolve {
				fmt.Fprintf(out, "Not enough credits (< %d)\n", ninekw.MinCreditsPerSolve)
				return nil
			}

			req, err := client.Submit(ctx, image, ninekw.WithPriority(samplePrio), ninekw.WithMaxTimeout(waitSeconds))
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			fmt.Fprintf(out, "Uploaded, captcha id %s\n", req.ID)

			answer, _, err := client.WaitForResult(ctx, req, waitSeconds)
			if err != nil {
				if errors.Is(err, ninekw.ErrTimedOut) {
					abort(ctx, client, req)
				}
				return fmt.Errorf("result: %w", err)
			}

			fmt.Fprintf(out, "Answer: %q\n", answer)
			correct := strings.EqualFold(answer, sampleAnswer)
			if correct {
				fmt.Fprintf(out, "%s answer matches %q\n", ok, sampleAnswer)
			} else {
				fmt.Fprintf(out, "%s expected %q\n", color.New(color.FgRed).Sprint("[FAIL]"), sampleAnswer)
			}
			if err := client.ReportOutcome(ctx, req, correct); err != nil {
				return err
			}
			fmt.Fprintln(out, "[DONE]")
			return nil
		},
	}
}

// fetchURL downloads a small resource through the same stealth transport the
// client uses.
func fetchURL(u string) ([]byte, error) {
	bc, err := stealth.NewClient()
	if err != nil {
		return nil, err
	}
	body, _, status, err := bc.DoWithHeaderOrder("GET", u, map[string]string{"accept": "image/*"}, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("HTTP %d", status)
	}
	return body, nil
}

// abort tells the service to drop req, logging instead of failing.
func abort(ctx context.Context, client *ninekw.Client, req *ninekw.SolveRequest) {
	if err := client.Abort(ctx, req); err != nil {
		slog.Warn("abort failed", slog.String("id", req.ID), slog.Any("error", err))
	}
}
