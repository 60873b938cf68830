package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ninekw "github.com/anatolykoptev/go-9kw"
	"github.com/anatolykoptev/go-9kw/internal/journal"
)

// FeedbackCmd reports whether an earlier answer was right.
func FeedbackCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <id> correct|wrong|abort",
		Short: "Report whether an answer was correct, or abort a captcha",
		Long: `Report the result of a solved captcha back to 9kw.eu.

  correct  the answer was right
  wrong    the answer was wrong (credits are refunded)
  abort    cancel an open captcha without being charged`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := feedbackCode(args[1])
			if err != nil {
				return err
			}
			client, err := opts.newClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			req := ninekw.ResumeRequest(args[0])
			if code == ninekw.FeedbackAbort {
				err = client.Abort(ctx, req)
			} else {
				err = client.ReportOutcome(ctx, req, code == ninekw.FeedbackCorrect)
			}
			if err != nil {
				return err
			}

			j, err := opts.openJournal()
			if err != nil {
				return err
			}
			if j != nil {
				defer j.Close()
				if err := j.RecordFeedback(ctx, req.ID, code); err != nil && !errors.Is(err, journal.ErrNotFound) {
					slog.Warn("journal write failed", slog.String("id", req.ID), slog.Any("error", err))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s feedback %q sent for %s\n", color.New(color.FgGreen).Sprint("✓"), args[1], req.ID)
			return nil
		},
	}
}

// feedbackCode maps a CLI word to the 9kw feedback code.
func feedbackCode(s string) (int, error) {
	switch strings.ToLower(s) {
	case "correct", "ok", "yes", "1":
		return ninekw.FeedbackCorrect, nil
	case "wrong", "incorrect", "no", "2":
		return ninekw.FeedbackIncorrect, nil
	case "abort", "cancel", "3":
		return ninekw.FeedbackAbort, nil
	}
	return 0, fmt.Errorf("unknown feedback %q: want correct, wrong or abort", s)
}

func feedbackName(code int) string {
	switch code {
	case ninekw.FeedbackCorrect:
		return "correct"
	case ninekw.FeedbackIncorrect:
		return "wrong"
	case ninekw.FeedbackAbort:
		return "abort"
	}
	return "-"
}
