package dto

import "time"

// SignupRequest is the payload posted by the landing page form.
type SignupRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// SignupResponse mirrors the result surfaced to the form: a success flag and,
// on failure, a displayable message.
type SignupResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SignupListFilter contains query parameters for admin signup listing.
type SignupListFilter struct {
	Source  string
	Since   *time.Time
	Page    int
	PerPage int
}

// SourceStats reports how many signups a given UI surface produced.
type SourceStats struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}
