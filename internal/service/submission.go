package service

import (
	"context"
	"sync"
)

// SubmissionState identifies where a submission flow currently is.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

// String renders the state for logs.
func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submitter issues a single signup attempt.
type Submitter interface {
	Submit(ctx context.Context, email, source string, metadata map[string]any) SubmitResult
}

// SubmissionFlow is the state machine governing one email-capture holder:
// Idle -> Submitting -> Succeeded | Failed. While an attempt is in flight, and
// after success until Reset, further Submit calls are gated and never reach
// the collaborator. A failed attempt may be retried directly.
type SubmissionFlow struct {
	mu        sync.Mutex
	state     SubmissionState
	message   string
	submitter Submitter
}

// NewSubmissionFlow wraps a submitter with fresh Idle state.
func NewSubmissionFlow(submitter Submitter) *SubmissionFlow {
	return &SubmissionFlow{state: StateIdle, submitter: submitter}
}

// State reports the current flow state.
func (f *SubmissionFlow) State() SubmissionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message reports the stored failure message, empty outside StateFailed.
func (f *SubmissionFlow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Reset returns the flow to Idle from any state and clears the stored message.
func (f *SubmissionFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateIdle
	f.message = ""
}

// Submit runs one attempt through the flow. The boolean reports whether an
// attempt was actually issued: while Submitting, or after success until
// Reset, the call returns a snapshot of the current outcome without touching
// the collaborator. Callers must branch on the returned result, not on state
// read back later.
func (f *SubmissionFlow) Submit(ctx context.Context, email, source string, metadata map[string]any) (SubmitResult, bool) {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return SubmitResult{}, false
	case StateSucceeded:
		f.mu.Unlock()
		return SubmitResult{Success: true}, false
	}
	f.state = StateSubmitting
	f.message = ""
	f.mu.Unlock()

	res := f.submitter.Submit(ctx, email, source, metadata)

	f.mu.Lock()
	if res.Success {
		f.state = StateSucceeded
	} else {
		f.state = StateFailed
		f.message = res.Error
	}
	f.mu.Unlock()

	return res, true
}
