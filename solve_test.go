package ninekw

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fake image bytes")

func TestSubmit_AssignsID(t *testing.T) {
	ft := newFakeTransport().on(actionUpload, `{"captchaid":"42"}`)
	c, _ := newTestClient(t, ft)

	req, err := c.Submit(context.Background(), samplePNG)
	require.NoError(t, err)
	assert.Equal(t, "42", req.ID)
	assert.Equal(t, StatusPending, req.Status)
	assert.False(t, req.SubmittedAt.IsZero())

	calls := ft.callsFor(actionUpload)
	require.Len(t, calls, 1)
	p := calls[0].params
	assert.Equal(t, "POST", calls[0].method)
	assert.Equal(t, base64.StdEncoding.EncodeToString(samplePNG), p.Get("file-upload-01"))
	assert.Equal(t, "1", p.Get("base64"))
	assert.Equal(t, "5", p.Get("prio"))
	assert.Equal(t, "60", p.Get("maxtimeout"))
	assert.Equal(t, apiSource, p.Get("source"))
}

func TestSubmit_NumericID(t *testing.T) {
	ft := newFakeTransport().on(actionUpload, `{"captchaid":130452138}`)
	c, _ := newTestClient(t, ft)

	req, err := c.Submit(context.Background(), samplePNG)
	require.NoError(t, err)
	assert.Equal(t, "130452138", req.ID)
}

func TestSubmit_Clamps(t *testing.T) {
	tests := []struct {
		name        string
		prio        int
		timeout     int
		wantPrio    int
		wantTimeout int
	}{
		{"in range", 3, 120, 3, 120},
		{"prio too low", -4, 60, MinPriority, 60},
		{"prio too high", 99, 60, MaxPriority, 60},
		{"timeout too low", 5, 10, 5, MinMaxTimeout},
		{"timeout too high", 5, 100000, 5, MaxMaxTimeout},
		{"both out of range", 0, 4000, MinPriority, MaxMaxTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport().on(actionUpload, `{"captchaid":"7"}`)
			c, _ := newTestClient(t, ft)

			req, err := c.Submit(context.Background(), samplePNG, WithPriority(tt.prio), WithMaxTimeout(tt.timeout))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrio, req.Priority)
			assert.Equal(t, tt.wantTimeout, req.MaxTimeout)

			p := ft.callsFor(actionUpload)[0].params
			assert.Equal(t, strconv.Itoa(tt.wantPrio), p.Get("prio"))
			assert.Equal(t, strconv.Itoa(tt.wantTimeout), p.Get("maxtimeout"))
		})
	}
}

func TestSubmit_DoesNotDoubleEncode(t *testing.T) {
	ft := newFakeTransport().on(actionUpload, `{"captchaid":"1"}`)
	c, _ := newTestClient(t, ft)

	_, err := c.Submit(context.Background(), samplePNG)
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), []byte(base64.StdEncoding.EncodeToString(samplePNG)))
	require.NoError(t, err)

	calls := ft.callsFor(actionUpload)
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].params.Get("file-upload-01"), calls[1].params.Get("file-upload-01"))
}

func TestSubmit_EmptyImage(t *testing.T) {
	ft := newFakeTransport()
	c, _ := newTestClient(t, ft)

	_, err := c.Submit(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyImage)
	assert.Zero(t, ft.callCount())
}

func TestSubmit_InsufficientCreditsFailsFast(t *testing.T) {
	ft := newFakeTransport().
		on(actionBalance, `{"credits": 5}`).
		on(actionUpload, `{"captchaid":"42"}`)
	c, _ := newTestClient(t, ft)

	credits, err := c.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, credits)

	_, err = c.Submit(context.Background(), samplePNG)
	require.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Empty(t, ft.callsFor(actionUpload))
	assert.Equal(t, 1, ft.callCount())
}

func TestSubmit_RemoteError(t *testing.T) {
	ft := newFakeTransport().on(actionUpload, `{"error":"0011 insufficient credit"}`)
	c, _ := newTestClient(t, ft)

	req, err := c.Submit(context.Background(), samplePNG)
	require.Nil(t, req)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 11, apiErr.Code)
	assert.Equal(t, "insufficient credit", apiErr.Message)
}

func TestSubmit_MalformedResponse(t *testing.T) {
	ft := newFakeTransport().on(actionUpload, `<html>maintenance</html>`)
	c, _ := newTestClient(t, ft)

	_, err := c.Submit(context.Background(), samplePNG)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, protocolErrorCode, perr.Code())
}

func TestSolve(t *testing.T) {
	ft := newFakeTransport().
		on(actionUpload, `{"captchaid":"9"}`).
		on(actionResult, `{"nodata":1}`, `{"answer":"viearer"}`)
	c, _ := newTestClient(t, ft)

	req, err := c.Solve(context.Background(), samplePNG, WithPriority(10), WithWaitTimeout(120))
	require.NoError(t, err)
	assert.Equal(t, "viearer", req.Answer)
	assert.Equal(t, StatusSolved, req.Status)
	assert.Len(t, ft.callsFor(actionResult), 2)
}

func TestSolve_ReturnsRequestOnWaitFailure(t *testing.T) {
	ft := newFakeTransport().
		on(actionUpload, `{"captchaid":"9"}`).
		on(actionResult, `{"answer":"ERROR NO USER"}`)
	c, _ := newTestClient(t, ft)

	req, err := c.Solve(context.Background(), samplePNG)
	require.ErrorIs(t, err, ErrNoSolversAvailable)
	require.NotNil(t, req)
	assert.Equal(t, "9", req.ID)
}
