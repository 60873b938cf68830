package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ninekw "github.com/anatolykoptev/go-9kw"
	"github.com/anatolykoptev/go-9kw/internal/journal"
)

// stubTransport answers by action name and records every action it saw.
type stubTransport struct {
	mu      sync.Mutex
	answers map[string]string
	actions []string
	params  []url.Values
}

func (s *stubTransport) DoWithHeaderOrder(method, urlStr string, _ map[string]string, body io.Reader, _ []string) ([]byte, map[string]string, int, error) {
	var params url.Values
	if body != nil {
		data, _ := io.ReadAll(body)
		params, _ = url.ParseQuery(string(data))
	} else {
		u, _ := url.Parse(urlStr)
		params = u.Query()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	action := params.Get("action")
	s.actions = append(s.actions, action)
	s.params = append(s.params, params)
	return []byte(s.answers[action]), nil, 200, nil
}

func runCmd(t *testing.T, opts *options, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeedbackCode(t *testing.T) {
	tests := []struct {
		in   string
		want int
		bad  bool
	}{
		{"correct", ninekw.FeedbackCorrect, false},
		{"OK", ninekw.FeedbackCorrect, false},
		{"wrong", ninekw.FeedbackIncorrect, false},
		{"2", ninekw.FeedbackIncorrect, false},
		{"abort", ninekw.FeedbackAbort, false},
		{"maybe", 0, true},
	}
	for _, tt := range tests {
		got, err := feedbackCode(tt.in)
		if tt.bad {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	_, err := (&options{}).newClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), apiKeyEnv)
}

func TestNewClient_KeyFromEnv(t *testing.T) {
	t.Setenv(apiKeyEnv, "env-key")
	c, err := (&options{transport: &stubTransport{}}).newClient()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestBalanceCmd(t *testing.T) {
	st := &stubTransport{answers: map[string]string{"usercaptchaguthaben": `{"credits":250}`}}
	opts := &options{transport: st}

	out, err := runCmd(t, opts, "balance", "--api-key", "k", "--journal", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Credits: 250 (~25 captchas)")
}

func TestSolveCmd_NoWaitJournals(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "captcha.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 'P', 'N', 'G', 0x00}, 0o600))
	dbPath := filepath.Join(dir, "journal.db")

	st := &stubTransport{answers: map[string]string{"usercaptchaupload": `{"captchaid":"1234"}`}}
	opts := &options{transport: st}

	out, err := runCmd(t, opts, "solve", img, "--no-wait", "--prio", "20", "--api-key", "k", "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Captcha id: 1234")
	assert.Equal(t, []string{"usercaptchaupload"}, st.actions)
	assert.Equal(t, "10", st.params[0].Get("prio"))

	out, err = runCmd(t, &options{}, "history", "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "pending")
}

func TestSolveCmd_SolvedOnFirstPoll(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "captcha.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 'P', 'N', 'G', 0x00}, 0o600))

	st := &stubTransport{answers: map[string]string{
		"usercaptchaupload":      `{"captchaid":"77"}`,
		"usercaptchacorrectdata": `{"answer":"xk4a"}`,
	}}
	out, err := runCmd(t, &options{transport: st}, "solve", img, "--api-key", "k", "--journal", "")
	require.NoError(t, err)
	assert.Contains(t, out, "xk4a")
}

func TestFeedbackCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, j.Record(t.Context(), ninekw.ResumeRequest("55")))
	require.NoError(t, j.Close())

	st := &stubTransport{answers: map[string]string{"usercaptchacorrectback": `{}`}}
	out, err := runCmd(t, &options{transport: st}, "feedback", "55", "wrong", "--api-key", "k", "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sent for 55")
	require.Len(t, st.params, 1)
	assert.Equal(t, "2", st.params[0].Get("correct"))

	j, err = journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()
	e, err := j.Get(t.Context(), "55")
	require.NoError(t, err)
	assert.Equal(t, ninekw.FeedbackIncorrect, e.Feedback)
}

func TestFeedbackCmd_BadWord(t *testing.T) {
	st := &stubTransport{}
	_, err := runCmd(t, &options{transport: st}, "feedback", "55", "maybe", "--api-key", "k", "--journal", "")
	require.Error(t, err)
	assert.Empty(t, st.actions)
}

func TestSampleCmd(t *testing.T) {
	st := &stubTransport{answers: map[string]string{
		"usercaptchaguthaben":    `{"credits":100}`,
		"usercaptchaupload":      `{"captchaid":"900"}`,
		"usercaptchacorrectdata": `{"answer":"VIEARER"}`,
		"usercaptchacorrectback": `{}`,
	}}
	opts := &options{
		transport: st,
		fetch:     func(string) ([]byte, error) { return []byte{0x89, 'P', 'N', 'G'}, nil },
	}

	out, err := runCmd(t, opts, "sample", "90", "--api-key", "k", "--journal", "")
	require.NoError(t, err)
	assert.Contains(t, out, "[DONE]")
	assert.Equal(t, []string{"usercaptchaguthaben", "usercaptchaupload", "usercaptchacorrectdata", "usercaptchacorrectback"}, st.actions)
	assert.Equal(t, "1", st.params[3].Get("correct"))
}

func TestSampleCmd_FetchFailure(t *testing.T) {
	st := &stubTransport{}
	opts := &options{
		transport: st,
		fetch:     func(string) ([]byte, error) { return nil, io.ErrUnexpectedEOF },
	}
	_, err := runCmd(t, opts, "sample", "90", "--api-key", "k", "--journal", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fetch sample captcha"))
	assert.Empty(t, st.actions)
}

func TestAbort_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	st := &stubTransport{}
	client, err := (&options{apiKey: "k", transport: st}).newClient()
	require.NoError(t, err)

	abort(t.Context(), client, &ninekw.SolveRequest{})
	assert.Contains(t, logs.String(), "abort failed")
	assert.Empty(t, st.actions)
}
