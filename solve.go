package ninekw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SubmitOption tunes a single upload.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	priority   int
	maxTimeout int
	// waitTimeout is only used by Solve.
	waitTimeout int
}

// WithPriority sets the paid priority (1..10). Out-of-range values are clamped.
func WithPriority(p int) SubmitOption {
	return func(o *submitOptions) { o.priority = p }
}

// WithMaxTimeout sets how long the service keeps the captcha open, in seconds
// (60..3999). Out-of-range values are clamped.
func WithMaxTimeout(seconds int) SubmitOption {
	return func(o *submitOptions) { o.maxTimeout = seconds }
}

// WithWaitTimeout overrides the total wait of Solve, in seconds.
func WithWaitTimeout(seconds int) SubmitOption {
	return func(o *submitOptions) { o.waitTimeout = seconds }
}

// Submit uploads a captcha image (raw or already base64-encoded) and returns
// a pending request.
func (c *Client) Submit(ctx context.Context, image []byte, opts ...SubmitOption) (*SolveRequest, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if credits, ok := c.CachedCredits(); ok && credits < c.cfg.MinCredits {
		return nil, fmt.Errorf("%d credits left, need %d: %w", credits, c.cfg.MinCredits, ErrInsufficientCredits)
	}

	o := submitOptions{priority: c.cfg.DefaultPriority, maxTimeout: c.cfg.DefaultMaxTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	req := &SolveRequest{
		Priority:   clamp("prio", o.priority, MinPriority, MaxPriority),
		MaxTimeout: clamp("maxtimeout", o.maxTimeout, MinMaxTimeout, MaxMaxTimeout),
		Status:     StatusUnsubmitted,
	}

	encoded := encodeImage(image)
	slog.Debug("9kw: uploading captcha",
		slog.Int("bytes", len(encoded)),
		slog.Int("prio", req.Priority),
		slog.Int("maxtimeout", req.MaxTimeout))

	body, err := c.doPOST(ctx, actionUpload, c.uploadParams(encoded, req.Priority, req.MaxTimeout))
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	id, err := parseUploadResponse(body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			slog.Warn("9kw: upload rejected", slog.Int("code", apiErr.Code), slog.String("message", apiErr.Message))
		}
		return nil, fmt.Errorf("upload: %w", err)
	}

	req.ID = id
	req.Status = StatusPending
	req.SubmittedAt = c.now()
	slog.Info("9kw: captcha uploaded", slog.String("id", id))
	return req, nil
}

// Solve uploads an image and waits for its answer. The returned request is
// non-nil whenever the upload succeeded, so callers can still send feedback.
func (c *Client) Solve(ctx context.Context, image []byte, opts ...SubmitOption) (*SolveRequest, error) {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}
	req, err := c.Submit(ctx, image, opts...)
	if err != nil {
		return nil, err
	}
	if _, _, err := c.WaitForResult(ctx, req, o.waitTimeout); err != nil {
		return req, err
	}
	return req, nil
}

// clamp keeps v within [lo, hi] and logs when it had to.
func clamp(name string, v, lo, hi int) int {
	switch {
	case v < lo:
		slog.Warn("9kw: value below minimum, using minimum",
			slog.String("param", name), slog.Int("wanted", v), slog.Int("using", lo))
		return lo
	case v > hi:
		slog.Warn("9kw: value above maximum, using maximum",
			slog.String("param", name), slog.Int("wanted", v), slog.Int("using", hi))
		return hi
	}
	return v
}
