// Package restclient talks to the Masomo REST API on behalf of the dashboard.
package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/policy"
	"github.com/masomo/dashboard/core/session"
)

const (
	loginPath        = "/v1/auth/login"
	refreshPath      = "/v1/auth/token-refresh"
	profilePath      = "/v1/users/profile"
	capabilitiesPath = "/v1/users/capabilities"
	healthPath       = "/health"
)

type (
	Client struct {
		baseURL string
		rest    *rest.Client
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	userEnvelope struct {
		User *identity.Identity `json:"user"`
	}

	tokenEnvelope struct {
		Token string `json:"token"`
	}

	// CapabilitySet is what the API says the caller may do.
	CapabilitySet struct {
		Role         identity.Role       `json:"role"`
		Capabilities []policy.Capability `json:"capabilities"`
	}
)

var _ session.Backend = (*Client)(nil)

// New returns a Client for the API rooted at baseURL, e.g. http://localhost:8000.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (session.AuthResponse, error) {
	var resp session.AuthResponse
	err := c.do(ctx, rest.Post, loginPath, "", loginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

func (c *Client) FetchCurrentIdentity(ctx context.Context, token string) (identity.Identity, error) {
	var env userEnvelope
	if err := c.do(ctx, rest.Get, profilePath, token, nil, &env); err != nil {
		return identity.Identity{}, err
	}
	if env.User == nil {
		return identity.Identity{}, errors.Wrap(session.ErrTransportFailure, "profile response without user")
	}
	return *env.User, nil
}

// UpdateProfile changes the caller's own profile. Callers re-fetch the
// identity afterwards instead of using the returned body.
func (c *Client) UpdateProfile(ctx context.Context, token string, up identity.UpdateProfile) error {
	return c.do(ctx, rest.Put, profilePath, token, up, nil)
}

func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var env tokenEnvelope
	if err := c.do(ctx, rest.Post, refreshPath, token, nil, &env); err != nil {
		return "", err
	}
	return env.Token, nil
}

func (c *Client) Capabilities(ctx context.Context, token string) (CapabilitySet, error) {
	var set CapabilitySet
	err := c.do(ctx, rest.Get, capabilitiesPath, token, nil, &set)
	return set, err
}

// Health reports whether the API answers its health check.
func (c *Client) Health(ctx context.Context) bool {
	return c.do(ctx, rest.Get, healthPath, "", nil, nil) == nil
}

func (c *Client) do(ctx context.Context, method rest.Method, path, token string, body, out interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		req.Headers["Content-Type"] = "application/json"
		req.Body = data
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(session.ErrTransportFailure, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &session.Rejection{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.Body == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(resp.Body), out); err != nil {
		return errors.Wrap(session.ErrTransportFailure, fmt.Sprintf("decoding %s response: %v", path, err))
	}
	return nil
}

// errorMessage pulls the reason out of an error payload. Both
// {"error": "..."} and {"error": {"message": "..."}} are understood, as are
// validation payloads mapping field names to messages.
func errorMessage(body string) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &payload); err != nil || len(payload) == 0 {
		return ""
	}
	raw, ok := payload["error"]
	if !ok {
		return fieldMessage(payload)
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}

// fieldMessage returns "field: message" for the first field, by name, of a validation payload.
func fieldMessage(payload map[string]json.RawMessage) string {
	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		var msg string
		if err := json.Unmarshal(payload[field], &msg); err == nil && msg != "" {
			return field + ": " + msg
		}
	}
	return ""
}
