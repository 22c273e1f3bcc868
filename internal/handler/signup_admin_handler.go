package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/habitloop/signup-api/internal/dto"
	"github.com/habitloop/signup-api/internal/service"
)

// SignupAdminHandler exposes the operator read surface over captured signups.
type SignupAdminHandler struct {
	signups *service.SignupService
}

// NewSignupAdminHandler constructs a handler instance.
func NewSignupAdminHandler(signups *service.SignupService) *SignupAdminHandler {
	return &SignupAdminHandler{signups: signups}
}

// List returns signups matching the query filters.
func (h *SignupAdminHandler) List(c echo.Context) error {
	filter, err := parseSignupFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	records, err := h.signups.ListSignups(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list signups")
	}
	return Success(c, http.StatusOK, "signups retrieved", records)
}

// Stats returns per-source signup counts.
func (h *SignupAdminHandler) Stats(c echo.Context) error {
	stats, err := h.signups.SourceStats(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to aggregate signups")
	}
	return Success(c, http.StatusOK, "signup stats retrieved", stats)
}

// ExportCSV streams the filtered signups as a CSV download.
func (h *SignupAdminHandler) ExportCSV(c echo.Context) error {
	filter, err := parseSignupFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="signups.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	return h.signups.WriteSignupsCSV(c.Request().Context(), c.Response(), filter)
}

func parseSignupFilter(c echo.Context) (dto.SignupListFilter, error) {
	filter := dto.SignupListFilter{
		Source: strings.TrimSpace(c.QueryParam("source")),
	}

	if raw := c.QueryParam("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("since must be RFC3339")
		}
		filter.Since = &ts
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("page must be an integer")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("per_page must be an integer")
		}
		filter.PerPage = perPage
	}

	return filter, nil
}
