package ninekw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PollOnce checks the service once for the answer of req.
//
// "No answer yet" is OutcomePending with a nil error. Structured errors and
// "no solvers" mark req as failed and are returned together with their
// outcome. Transport errors leave req untouched.
func (c *Client) PollOnce(ctx context.Context, req *SolveRequest) (Outcome, error) {
	if req.ID == "" || req.Status == StatusUnsubmitted {
		return OutcomePending, ErrNotSubmitted
	}
	if req.Status.Terminal() {
		return req.outcome(), req.terminalErr()
	}

	body, err := c.doGET(ctx, actionResult, c.resultParams(req.ID))
	if err != nil {
		return OutcomePending, fmt.Errorf("result %s: %w", req.ID, err)
	}

	res, err := parsePollResponse(body)
	if res.hasCredits {
		c.setCredits(res.credits)
	}
	if err != nil {
		req.fail(err)
		slog.Warn("9kw: unreadable result", slog.String("id", req.ID), slog.Any("error", err))
		return OutcomeFailed, err
	}

	switch {
	case res.apiErr != nil:
		req.fail(res.apiErr)
		slog.Warn("9kw: result error",
			slog.String("id", req.ID),
			slog.Int("code", res.apiErr.Code),
			slog.String("message", res.apiErr.Message))
		return OutcomeFailed, res.apiErr
	case res.noSolvers:
		req.fail(ErrNoSolversAvailable)
		slog.Warn("9kw: no solvers available", slog.String("id", req.ID))
		return OutcomeNoSolvers, ErrNoSolversAvailable
	case res.noData:
		req.LastError = nil
		slog.Debug("9kw: no answer yet", slog.String("id", req.ID))
		return OutcomePending, nil
	}

	req.solve(res.answer)
	slog.Info("9kw: captcha solved", slog.String("id", req.ID))
	return OutcomeSolved, nil
}

// WaitForResult polls until req is solved, fails, or the wait budget runs out.
//
// totalTimeout (seconds) replaces req.MaxTimeout when it is at least
// MinMaxTimeout. One poll interval is added as slack. The number of polls is
// capped at budget/interval and the budget is also enforced as a wall-clock
// deadline between polls. Any outcome other than "no answer yet" stops the
// loop at once. A poll the rate limiter cannot admit before the deadline
// also ends the wait as timed out.
func (c *Client) WaitForResult(ctx context.Context, req *SolveRequest, totalTimeout int) (string, Outcome, error) {
	if req.ID == "" || req.Status == StatusUnsubmitted {
		return "", OutcomePending, ErrNotSubmitted
	}
	if req.Status.Terminal() {
		return req.Answer, req.outcome(), req.terminalErr()
	}

	timeout := req.MaxTimeout
	if totalTimeout >= MinMaxTimeout {
		timeout = totalTimeout
	}
	interval := c.cfg.PollInterval
	budget := time.Duration(timeout)*time.Second + interval
	maxPolls := int(budget / interval)
	deadline := c.now().Add(budget)

	slog.Debug("9kw: waiting for answer",
		slog.String("id", req.ID),
		slog.Duration("budget", budget),
		slog.Int("polls", maxPolls))

	pollCtx := withWaitDeadline(ctx, deadline)
	for i := range maxPolls {
		if i > 0 && !c.now().Before(deadline) {
			break
		}
		outcome, err := c.PollOnce(pollCtx, req)
		if errors.Is(err, errThrottledPastDeadline) {
			break
		}
		if err != nil {
			return "", outcome, err
		}
		if outcome == OutcomeSolved {
			return req.Answer, outcome, nil
		}
		if i == maxPolls-1 {
			break
		}
		if err := c.sleep(ctx, interval); err != nil {
			return "", OutcomePending, err
		}
	}

	req.Status = StatusTimedOut
	req.LastError = nil
	slog.Warn("9kw: no answer within budget", slog.String("id", req.ID), slog.Duration("budget", budget))
	return "", OutcomeTimedOut, ErrTimedOut
}

type waitDeadlineKey struct{}

// withWaitDeadline records the end of the wait budget, measured on the client clock.
func withWaitDeadline(ctx context.Context, deadline time.Time) context.Context {
	return context.WithValue(ctx, waitDeadlineKey{}, deadline)
}

func waitDeadline(ctx context.Context) (time.Time, bool) {
	d, ok := ctx.Value(waitDeadlineKey{}).(time.Time)
	return d, ok
}
