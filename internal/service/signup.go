package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/habitloop/signup-api/internal/dto"
	"github.com/habitloop/signup-api/internal/entity"
	"github.com/habitloop/signup-api/internal/repository"
)

// User-facing messages surfaced by the submission flow. The duplicate and
// generic failure strings are contractual: clients display them verbatim.
const (
	MsgDuplicateEmail = "Email already registered!"
	MsgSubmitFailed   = "Failed to submit email. Please try again."
	MsgEmailRequired  = "A valid email address is required."
	MsgSourceRequired = "A signup source is required."
)

// FailureKind classifies why a submission attempt failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidInput
	FailureDuplicateEmail
	FailureCollaborator
	FailureUnexpected
)

// SubmitResult is the outcome of one submission attempt. Error carries a
// displayable message and is empty exactly when Success is true.
type SubmitResult struct {
	Success bool
	Kind    FailureKind
	Error   string
}

// SignupService maps collaborator responses onto the submission error
// taxonomy and serves the admin read surface. The taxonomy: duplicate
// address, structured collaborator error, or unexpected fault.
type SignupService struct {
	signups   repository.SignupsRepository
	validator *EmailValidator
}

// NewSignupService constructs a SignupService.
func NewSignupService(signups repository.SignupsRepository, validator *EmailValidator) *SignupService {
	if validator == nil {
		validator = NewEmailValidator()
	}
	return &SignupService{signups: signups, validator: validator}
}

// Submit issues exactly one create call for the given address and maps the
// outcome. It never returns an error: every failure becomes a displayable
// result. Unexpected faults are logged for operators and never leak their
// underlying cause to the user.
func (s *SignupService) Submit(ctx context.Context, email, source string, metadata map[string]any) SubmitResult {
	email = NormalizeEmail(email)
	source = strings.TrimSpace(source)

	if source == "" {
		return SubmitResult{Kind: FailureInvalidInput, Error: MsgSourceRequired}
	}
	if err := s.validator.Validate(ctx, email); err != nil {
		return SubmitResult{Kind: FailureInvalidInput, Error: MsgEmailRequired}
	}

	if _, err := s.signups.Create(ctx, email, source, metadata); err != nil {
		var collabErr *repository.CollaboratorError
		switch {
		case errors.Is(err, repository.ErrEmailDuplicate):
			return SubmitResult{Kind: FailureDuplicateEmail, Error: MsgDuplicateEmail}
		case errors.As(err, &collabErr):
			return SubmitResult{Kind: FailureCollaborator, Error: collabErr.Message}
		default:
			log.Printf("signup submission fault: source=%s err=%v", source, err)
			return SubmitResult{Kind: FailureUnexpected, Error: MsgSubmitFailed}
		}
	}

	return SubmitResult{Success: true}
}

// ListSignups returns captured signups respecting pagination defaults.
func (s *SignupService) ListSignups(ctx context.Context, filter dto.SignupListFilter) ([]entity.Signup, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 50
	}
	if filter.PerPage > 200 {
		filter.PerPage = 200
	}
	return s.signups.List(ctx, filter)
}

// SourceStats returns signup counts per originating UI surface.
func (s *SignupService) SourceStats(ctx context.Context) ([]dto.SourceStats, error) {
	return s.signups.CountBySource(ctx)
}

// WriteSignupsCSV streams the filtered signups as CSV for the marketing team.
func (s *SignupService) WriteSignupsCSV(ctx context.Context, w io.Writer, filter dto.SignupListFilter) error {
	signups, err := s.ListSignups(ctx, filter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"email", "source", "created_at"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, signup := range signups {
		record := []string{signup.Email, signup.Source, signup.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
