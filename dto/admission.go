package dto

import "time"

// AdmissionStatus is the outcome of running a request through the gate.
type AdmissionStatus string

const (
	AdmissionAllowed         AdmissionStatus = "allowed"
	AdmissionBlocked         AdmissionStatus = "blocked"
	AdmissionRateLimited     AdmissionStatus = "rate_limited"
	AdmissionBudgetExhausted AdmissionStatus = "budget_exhausted"
)

// AdmissionResult is what the gate hands back to the HTTP layer. Exactly
// one of the optional fields is meaningful per status: Remaining for
// allowed, RetryAfterSeconds for rate_limited, Message for
// budget_exhausted.
type AdmissionResult struct {
	Status            AdmissionStatus `json:"status"`
	Remaining         int             `json:"remaining,omitempty"`
	RetryAfterSeconds int             `json:"retry_after_seconds,omitempty"`
	Message           string          `json:"message,omitempty"`
}

func (r *AdmissionResult) Allowed() bool {
	return r.Status == AdmissionAllowed
}

type RateLimitInfo struct {
	Allowed           bool       `json:"allowed"`
	Remaining         int        `json:"remaining"`
	RetryAfterSeconds int        `json:"retry_after_seconds,omitempty"`
	ResetTime         *time.Time `json:"reset_time,omitempty"`
}
