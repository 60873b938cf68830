package ninekw

import "time"

// Status is the lifecycle state of a SolveRequest.
type Status int

const (
	StatusUnsubmitted Status = iota
	StatusPending
	StatusSolved
	StatusFailed
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusUnsubmitted:
		return "unsubmitted"
	case StatusPending:
		return "pending"
	case StatusSolved:
		return "solved"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSolved || s == StatusFailed || s == StatusTimedOut
}

// Outcome is the result of a single poll or of a whole wait.
type Outcome int

const (
	OutcomePending Outcome = iota // no answer yet, retry later
	OutcomeSolved
	OutcomeFailed
	OutcomeNoSolvers
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSolved:
		return "solved"
	case OutcomeFailed:
		return "failed"
	case OutcomeNoSolvers:
		return "no_solvers"
	case OutcomeTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// SolveRequest is one captcha submitted to 9kw.
// A request must not be used from several goroutines at once.
type SolveRequest struct {
	ID          string
	Priority    int
	MaxTimeout  int // seconds
	Status      Status
	Answer      string
	LastError   error
	SubmittedAt time.Time
}

// ResumeRequest rebuilds a pending request for a captcha id obtained earlier,
// e.g. to send feedback from another process.
func ResumeRequest(id string) *SolveRequest {
	return &SolveRequest{
		ID:         id,
		Priority:   MinPriority,
		MaxTimeout: MinMaxTimeout,
		Status:     StatusPending,
	}
}

func (r *SolveRequest) solve(answer string) {
	r.Status = StatusSolved
	r.Answer = answer
	r.LastError = nil
}

func (r *SolveRequest) fail(err error) {
	r.Status = StatusFailed
	r.LastError = err
}

// outcome returns the terminal outcome matching the current status.
func (r *SolveRequest) outcome() Outcome {
	switch r.Status {
	case StatusSolved:
		return OutcomeSolved
	case StatusTimedOut:
		return OutcomeTimedOut
	case StatusFailed:
		if r.LastError == ErrNoSolversAvailable {
			return OutcomeNoSolvers
		}
		return OutcomeFailed
	}
	return OutcomePending
}

func (r *SolveRequest) terminalErr() error {
	if r.Status == StatusTimedOut {
		return ErrTimedOut
	}
	return r.LastError
}
