package ninekw

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrEmptyImage          = errors.New("9kw: empty image")
	ErrNotSubmitted        = errors.New("9kw: request has no captcha id")
	ErrInsufficientCredits = errors.New("9kw: not enough credits")
	ErrNoSolversAvailable  = errors.New("9kw: no solvers available, try a larger timeout or try again later")
	ErrTimedOut            = errors.New("9kw: timed out waiting for answer")
	ErrInvalidAPIKey       = errors.New("9kw: invalid api key")
	ErrRateLimited         = errors.New("9kw: rate limited")
)

// protocolErrorCode is reported for responses that do not match any known shape.
const protocolErrorCode = 666

// APIError is a structured error reported by the service as "NNNN message".
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("9kw error %04d: %s", e.Code, e.Message)
}

// Unwrap maps the code to its sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch classifyCode(e.Code) {
	case errCredits:
		return ErrInsufficientCredits
	case errAuth:
		return ErrInvalidAPIKey
	case errThrottled:
		return ErrRateLimited
	}
	return nil
}

// ProtocolError means the response body could not be decoded into a known shape.
type ProtocolError struct {
	Body   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("9kw protocol error: %s: %s", e.Reason, e.Body)
}

// Code returns the fixed sentinel code used for unparseable responses.
func (e *ProtocolError) Code() int { return protocolErrorCode }

// errorClass groups 9kw error codes by how the client reacts to them.
type errorClass int

const (
	errOther     errorClass = iota
	errAuth                 // 1-5 — key missing, unknown, inactive or disabled
	errCredits              // 11, 24 — balance too low
	errThrottled            // 15 — submitted too fast
)

func classifyCode(code int) errorClass {
	switch code {
	case 1, 2, 3, 4, 5:
		return errAuth
	case 11, 24:
		return errCredits
	case 15:
		return errThrottled
	}
	return errOther
}

var apiErrorRe = regexp.MustCompile(`^(\d{4}) (.+)$`)

// ParseAPIError splits the service's combined "NNNN message" error field.
func ParseAPIError(s string) (*APIError, error) {
	m := apiErrorRe.FindStringSubmatch(s)
	if m == nil {
		return nil, &ProtocolError{Body: s, Reason: "malformed error field"}
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &ProtocolError{Body: s, Reason: "malformed error code"}
	}
	return &APIError{Code: code, Message: m[2]}, nil
}

// errorDescriptions holds the service's documented error codes.
var errorDescriptions = map[int]string{
	1:  "No API key provided.",
	2:  "No API key found.",
	3:  "No active API key found.",
	4:  "API key deactivated by the operator.",
	5:  "No user found.",
	6:  "No data found.",
	7:  "No ID found.",
	8:  "No captcha found.",
	9:  "No image found.",
	10: "Image size not allowed.",
	11: "Insufficient balance.",
	12: "Already done.",
	13: "No answer contained.",
	14: "Captcha already answered.",
	15: "Captcha submitted too fast.",
	16: "JD check active.",
	17: "Unknown problem.",
	18: "No ID found.",
	19: "Invalid answer.",
	20: "Not submitted in time (wrong user ID).",
	21: "Link not allowed.",
	22: "Submission forbidden.",
	23: "Input forbidden.",
	24: "Balance too low.",
	25: "No input found.",
	26: "Terms not accepted.",
	27: "Voucher code not found.",
	28: "Voucher code already used.",
	29: "Maxtimeout below 60 seconds.",
	30: "User not found.",
}

// Describe returns the documented meaning of an error code, or "" if unknown.
func Describe(code int) string {
	return errorDescriptions[code]
}
