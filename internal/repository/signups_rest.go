package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/habitloop/signup-api/internal/dto"
	"github.com/habitloop/signup-api/internal/entity"
)

// RestSignupsRepository implements SignupsRepository against the hosted data
// API. The service authenticates with an API key; rows live in the hosted
// `signups` table and the creation timestamp is set by the collaborator.
type RestSignupsRepository struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ SignupsRepository = (*RestSignupsRepository)(nil)

// NewRestSignupsRepository builds a hosted data API client.
func NewRestSignupsRepository(client *http.Client, baseURL, apiKey string) *RestSignupsRepository {
	if baseURL == "" {
		panic("data API base URL must not be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RestSignupsRepository{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Create posts a signup row to the hosted table.
func (r *RestSignupsRepository) Create(ctx context.Context, email, source string, metadata map[string]any) (*entity.Signup, error) {
	payload := map[string]any{
		"email":    email,
		"source":   source,
		"metadata": metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode signup payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/signups", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create signup request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post signup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeRestError(resp.Body, resp.StatusCode)
	}

	var signup entity.Signup
	if err := json.NewDecoder(resp.Body).Decode(&signup); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &signup, nil
}

// List fetches signups matching the filter from the hosted table.
func (r *RestSignupsRepository) List(ctx context.Context, filter dto.SignupListFilter) ([]entity.Signup, error) {
	params := url.Values{}
	if filter.Source != "" {
		params.Set("source", filter.Source)
	}
	if filter.Since != nil {
		params.Set("since", filter.Since.UTC().Format(time.RFC3339))
	}
	params.Set("page", strconv.Itoa(filter.Page))
	params.Set("per_page", strconv.Itoa(filter.PerPage))

	var signups []entity.Signup
	if err := r.getJSON(ctx, "/signups?"+params.Encode(), &signups); err != nil {
		return nil, err
	}
	return signups, nil
}

// CountBySource fetches per-source signup counts from the hosted table.
func (r *RestSignupsRepository) CountBySource(ctx context.Context) ([]dto.SourceStats, error) {
	var stats []dto.SourceStats
	if err := r.getJSON(ctx, "/signups/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *RestSignupsRepository) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create data API request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("query data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeRestError(resp.Body, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode data API response: %w", err)
	}
	return nil
}

func (r *RestSignupsRepository) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
}

// decodeRestError maps a structured collaborator error body onto the local
// taxonomy. Bodies that do not carry a structured error stay plain errors so
// the caller treats them as unexpected faults.
func decodeRestError(body io.Reader, status int) error {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return fmt.Errorf("data API returned status %d", status)
	}

	var restErr restError
	if err := json.Unmarshal(data, &restErr); err != nil || restErr.Message == "" && restErr.Code == "" {
		return fmt.Errorf("data API returned status %d: %s", status, string(data))
	}

	if restErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrEmailDuplicate, restErr.Message)
	}
	return &CollaboratorError{Code: restErr.Code, Message: restErr.Message}
}
