package ninekw

import (
	"context"
	"log/slog"
)

// Balance queries the remaining credits and refreshes the cached value.
func (c *Client) Balance(ctx context.Context) (int, error) {
	body, err := c.doGET(ctx, actionBalance, c.balanceParams())
	if err != nil {
		return 0, err
	}
	credits, err := parseBalanceResponse(body)
	if err != nil {
		return 0, err
	}
	c.setCredits(credits)
	slog.Debug("9kw: balance",
		slog.Int("credits", credits),
		slog.Int("solves_left", credits/c.cfg.MinCredits))
	return credits, nil
}
