package ninekw

import (
	"context"
	"log/slog"
)

// ReportOutcome tells the service whether the answer of req was correct.
// Only a request without an id is an error; delivery failures are logged.
func (c *Client) ReportOutcome(ctx context.Context, req *SolveRequest, correct bool) error {
	code := FeedbackIncorrect
	if correct {
		code = FeedbackCorrect
	}
	return c.sendFeedback(ctx, req, code)
}

// Abort cancels req without being charged for it.
func (c *Client) Abort(ctx context.Context, req *SolveRequest) error {
	return c.sendFeedback(ctx, req, FeedbackAbort)
}

func (c *Client) sendFeedback(ctx context.Context, req *SolveRequest, code int) error {
	if req == nil || req.ID == "" {
		return ErrNotSubmitted
	}

	slog.Debug("9kw: sending feedback", slog.String("id", req.ID), slog.Int("correct", code))
	body, err := c.doGET(ctx, actionFeedback, c.feedbackParams(req.ID, code))
	if err != nil {
		slog.Warn("9kw: feedback not delivered", slog.String("id", req.ID), slog.Any("error", err))
		return nil
	}
	if err := parseFeedbackResponse(body); err != nil {
		slog.Warn("9kw: feedback rejected", slog.String("id", req.ID), slog.Any("error", err))
	}
	return nil
}
