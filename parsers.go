package ninekw

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sentinel answers sent by the service instead of a solution.
const (
	answerNoData    = "NO DATA"
	answerNoSolvers = "ERROR NO USER"
)

// rawResponse is the union of every field the json=1 API may return.
type rawResponse struct {
	Error     *string         `json:"error"`
	CaptchaID json.RawMessage `json:"captchaid"`
	Answer    *string         `json:"answer"`
	NoData    json.RawMessage `json:"nodata"`
	Credits   json.RawMessage `json:"credits"`
}

// pollResult is the decoded response of usercaptchacorrectdata.
type pollResult struct {
	answer     string
	noData     bool
	noSolvers  bool
	credits    int
	hasCredits bool
	apiErr     *APIError
}

func decodeRaw(body []byte) (*rawResponse, error) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, &ProtocolError{Body: truncateBytes(body, 200), Reason: "not a json object"}
	}
	var r rawResponse
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return nil, &ProtocolError{Body: truncateBytes(body, 200), Reason: err.Error()}
	}
	return &r, nil
}

// apiError extracts the structured error, if the response carries one.
func (r *rawResponse) apiError() (*APIError, error) {
	if r.Error == nil || strings.TrimSpace(*r.Error) == "" {
		return nil, nil
	}
	return ParseAPIError(strings.TrimSpace(*r.Error))
}

// parseUploadResponse returns the assigned captcha id.
func parseUploadResponse(body []byte) (string, error) {
	r, err := decodeRaw(body)
	if err != nil {
		return "", err
	}
	apiErr, err := r.apiError()
	if err != nil {
		return "", err
	}
	if apiErr != nil {
		return "", apiErr
	}
	id, ok := rawString(r.CaptchaID)
	if !ok || id == "" || id == "0" {
		return "", &ProtocolError{Body: truncateBytes(body, 200), Reason: "missing captchaid"}
	}
	return id, nil
}

// parsePollResponse decodes a result poll. Only malformed bodies return an error;
// structured errors are reported in pollResult.apiErr.
func parsePollResponse(body []byte) (pollResult, error) {
	var res pollResult
	r, err := decodeRaw(body)
	if err != nil {
		return res, err
	}
	if n, ok := rawInt(r.Credits); ok {
		res.credits, res.hasCredits = n, true
	}
	apiErr, err := r.apiError()
	if err != nil {
		return res, err
	}
	if apiErr != nil {
		res.apiErr = apiErr
		return res, nil
	}

	answer := ""
	if r.Answer != nil {
		answer = *r.Answer
	}
	switch trimmed := strings.TrimSpace(answer); {
	case trimmed == answerNoSolvers:
		res.noSolvers = true
	case trimmed == answerNoData:
		res.noData = true
	case trimmed != "":
		res.answer = answer
	case rawTruthy(r.NoData):
		res.noData = true
	default:
		return res, &ProtocolError{Body: truncateBytes(body, 200), Reason: "no answer, nodata or error field"}
	}
	return res, nil
}

// parseFeedbackResponse only checks for a structured error.
func parseFeedbackResponse(body []byte) error {
	r, err := decodeRaw(body)
	if err != nil {
		return err
	}
	apiErr, err := r.apiError()
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

// parseBalanceResponse returns the remaining credits.
func parseBalanceResponse(body []byte) (int, error) {
	r, err := decodeRaw(body)
	if err != nil {
		return 0, err
	}
	apiErr, err := r.apiError()
	if err != nil {
		return 0, err
	}
	if apiErr != nil {
		return 0, apiErr
	}
	n, ok := rawInt(r.Credits)
	if !ok {
		return 0, &ProtocolError{Body: truncateBytes(body, 200), Reason: "missing credits"}
	}
	return n, nil
}

// rawString accepts both "42" and 42.
func rawString(raw json.RawMessage) (string, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", false
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if json.Unmarshal(raw, &v) != nil {
			return "", false
		}
		return strings.TrimSpace(v), true
	}
	var n json.Number
	if json.Unmarshal(raw, &n) != nil {
		return "", false
	}
	return n.String(), true
}

func rawInt(raw json.RawMessage) (int, bool) {
	s, ok := rawString(raw)
	if !ok {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

func rawTruthy(raw json.RawMessage) bool {
	s, ok := rawString(raw)
	if !ok {
		return strings.TrimSpace(string(raw)) == "true"
	}
	return s != "" && s != "0" && s != "false"
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
