package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/habitloop/signup-api/internal/dto"
	"github.com/habitloop/signup-api/internal/entity"
	middleware "github.com/habitloop/signup-api/internal/middleware"
	"github.com/habitloop/signup-api/internal/service"
)

// SignupHandler exposes the public email-capture endpoint.
type SignupHandler struct {
	submitter service.Submitter
	analytics EventPoster
}

// NewSignupHandler constructs a SignupHandler. The analytics poster is
// optional; pass nil to disable event forwarding.
func NewSignupHandler(submitter service.Submitter, analytics EventPoster) *SignupHandler {
	return &SignupHandler{submitter: submitter, analytics: analytics}
}

// Submit handles POST /signups. Each request drives one submission flow from
// Idle to a terminal state; branching happens on the flow's returned result,
// never on state read back afterwards.
func (h *SignupHandler) Submit(c echo.Context) error {
	var req dto.SignupRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Source = strings.TrimSpace(req.Source)
	if req.Email == "" || req.Source == "" {
		return Error(c, http.StatusBadRequest, "email and source are required")
	}

	flow := service.NewSubmissionFlow(h.submitter)
	res, issued := flow.Submit(c.Request().Context(), req.Email, req.Source, signupMetadata(c))
	if !issued {
		return Error(c, http.StatusConflict, "a submission is already in flight")
	}

	if !res.Success {
		status := http.StatusBadGateway
		switch res.Kind {
		case service.FailureInvalidInput:
			status = http.StatusBadRequest
		case service.FailureDuplicateEmail:
			status = http.StatusConflict
		}
		return ErrorWithData(c, status, res.Error, dto.SignupResponse{Success: false, Error: res.Error})
	}

	h.postSignupEvent(c, req.Source)

	return Success(c, http.StatusCreated, "signup recorded", dto.SignupResponse{Success: true})
}

// signupMetadata assembles the auxiliary attributes stored with each signup:
// the promotional tier and its benefits, the attempt timestamp, and client
// context for later analytics.
func signupMetadata(c echo.Context) map[string]any {
	return map[string]any{
		"tier":         entity.TierFoundingMember,
		"benefits":     entity.FoundingMemberBenefits,
		"submitted_at": time.Now().UTC().Format(time.RFC3339),
		"user_agent":   c.Request().UserAgent(),
		"referrer":     c.Request().Referer(),
	}
}

// postSignupEvent forwards the capture to the analytics sink. Forwarding is
// best effort: failures are logged and never affect the submission result.
func (h *SignupHandler) postSignupEvent(c echo.Context, source string) {
	if h.analytics == nil {
		return
	}
	payload := map[string]any{
		"source": source,
		"tier":   entity.TierFoundingMember,
	}
	if err := h.analytics.PostEvent(c.Request().Context(), "signup", payload, middleware.RequestIDFromContext(c)); err != nil {
		log.Printf("analytics event failed: %v", err)
	}
}
