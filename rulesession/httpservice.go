package rulesession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pricefy/repricing/repricing"
)

// HTTPService is a RuleService over the repricing REST API:
// GET /api/v1/repricing/rules/{id}, POST /api/v1/repricing/rules,
// PUT /api/v1/repricing/rules/{id}.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

// NewHTTPService creates an API-backed RuleService. A nil client uses
// http.DefaultClient.
func NewHTTPService(baseURL string, client *http.Client) *HTTPService {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// apiError is the server's error envelope.
type apiError struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (s *HTTPService) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope apiError
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			if envelope.Details != "" {
				return fmt.Errorf("%s: %s", envelope.Error, envelope.Details)
			}
			return fmt.Errorf("%s", envelope.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Get fetches a rule by ID.
func (s *HTTPService) Get(ctx context.Context, id string) (*repricing.Rule, error) {
	var rule repricing.Rule
	if err := s.do(ctx, http.MethodGet, "/api/v1/repricing/rules/"+id, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create persists a new rule and returns it with its server-assigned ID.
func (s *HTTPService) Create(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error) {
	var rule repricing.Rule
	if err := s.do(ctx, http.MethodPost, "/api/v1/repricing/rules", r, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Update persists changes to an existing rule.
func (s *HTTPService) Update(ctx context.Context, r *repricing.Rule) (*repricing.Rule, error) {
	var rule repricing.Rule
	if err := s.do(ctx, http.MethodPut, "/api/v1/repricing/rules/"+r.ID, r, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}
