// Package client is a thin JSON client for the CMS HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
)

// APIError is a non-2xx answer. Message is the server's human readable text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.AuthResponse, error) {
	var out auth.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", auth.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) ListBlueprints(ctx context.Context) (*blueprint.ListBlueprintsResponse, error) {
	var out blueprint.ListBlueprintsResponse
	if err := c.do(ctx, http.MethodGet, "/api/blueprints", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBlueprint(ctx context.Context, id uuid.UUID) (*blueprint.Blueprint, error) {
	var out blueprint.Blueprint
	if err := c.do(ctx, http.MethodGet, "/api/blueprints/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBlueprint(ctx context.Context, req *blueprint.CreateBlueprintRequest) (*blueprint.Blueprint, error) {
	var out blueprint.Blueprint
	if err := c.do(ctx, http.MethodPost, "/api/blueprints", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBlueprint(ctx context.Context, id uuid.UUID, req *blueprint.UpdateBlueprintRequest) (*blueprint.Blueprint, error) {
	var out blueprint.Blueprint
	if err := c.do(ctx, http.MethodPut, "/api/blueprints/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetContent(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	var out content.Content
	if err := c.do(ctx, http.MethodGet, "/api/content/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateContent(ctx context.Context, req *content.CreateContentRequest) (*content.Content, error) {
	var out content.Content
	if err := c.do(ctx, http.MethodPost, "/api/content", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContent(ctx context.Context, id uuid.UUID, req *content.UpdateContentRequest) (*content.Content, error) {
	var out content.Content
	if err := c.do(ctx, http.MethodPut, "/api/content/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddSection(ctx context.Context, contentID, blueprintID uuid.UUID) (*content.Section, error) {
	var out content.Section
	path := "/api/content/" + contentID.String() + "/sections"
	if err := c.do(ctx, http.MethodPost, path, content.AddSectionRequest{BlueprintID: blueprintID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError reads the first of error, message or details the body carries,
// falling back to the status text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &APIError{Status: resp.StatusCode}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"error", "message", "details"} {
			if s, ok := body[key].(string); ok && s != "" {
				apiErr.Message = s
				break
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
