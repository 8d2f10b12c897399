package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/session"
)

var student = identity.Identity{
	ID:        "42",
	Username:  "amani",
	Email:     "amani@test.cd",
	Role:      identity.RoleStudent,
	CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.Email == student.Email && req.Password == "secret":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"token": "tok-42", "user": student})
		case req.Email == "nested@test.cd":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Account locked"}}`))
		case req.Email == "html@test.cd":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
		}
	})
	mux.HandleFunc(profilePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-42" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing or malformed jwt"}`))
			return
		}
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"user":{}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"user": student})
	})
	mux.HandleFunc(capabilitiesPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role":"student","capabilities":["edit_own_profile","view_dashboard"]}`))
	})
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Authenticate(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		password   string
		wantToken  string
		wantStatus int
		wantMsg    string
	}{
		{name: "accepted", email: student.Email, password: "secret", wantToken: "tok-42"},
		{name: "wrong password", email: student.Email, password: "nope", wantStatus: 401, wantMsg: "Invalid credentials"},
		{name: "nested error payload", email: "nested@test.cd", password: "x", wantStatus: 401, wantMsg: "Account locked"},
		{name: "non json error", email: "html@test.cd", password: "x", wantStatus: 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Authenticate(ctx, tt.email, tt.password)
			if tt.wantToken != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, resp.Token)
				assert.Equal(t, student, resp.Identity)
				return
			}
			var rej *session.Rejection
			require.True(t, errors.As(err, &rej), "error %v is not a rejection", err)
			assert.Equal(t, tt.wantStatus, rej.StatusCode)
			assert.Equal(t, tt.wantMsg, rej.Message)
			assert.True(t, errors.Is(err, session.ErrAuthenticationRejected))
		})
	}
}

func TestClient_FetchCurrentIdentity(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)

	got, err := c.FetchCurrentIdentity(context.Background(), "tok-42")
	require.NoError(t, err)
	assert.Equal(t, student, got)

	_, err = c.FetchCurrentIdentity(context.Background(), "forged")
	assert.True(t, errors.Is(err, session.ErrAuthenticationRejected))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.Authenticate(context.Background(), student.Email, "secret")
	assert.True(t, errors.Is(err, session.ErrTransportFailure))
	_, err = c.FetchCurrentIdentity(context.Background(), "tok-42")
	assert.True(t, errors.Is(err, session.ErrTransportFailure))
	assert.False(t, c.Health(context.Background()))
}

func TestClient_Extras(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	assert.True(t, c.Health(ctx))

	set, err := c.Capabilities(ctx, "tok-42")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleStudent, set.Role)
	assert.Len(t, set.Capabilities, 2)

	assert.NoError(t, c.UpdateProfile(ctx, "tok-42", identity.UpdateProfile{Username: "amani2"}))
	assert.Error(t, c.UpdateProfile(ctx, "", identity.UpdateProfile{Username: "amani2"}))
}

func Test_errorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"error":"Invalid credentials"}`, want: "Invalid credentials"},
		{body: `{"error":{"message":"Token expired"}}`, want: "Token expired"},
		{body: `{"email":"this field is required"}`, want: "email: this field is required"},
		{body: `{"username":"too short","email":"taken"}`, want: "email: taken"},
		{body: `{"count":3}`, want: ""},
		{body: `{"error":42}`, want: ""},
		{body: ``, want: ""},
		{body: `nope`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			if got := errorMessage(tt.body); got != tt.want {
				t.Errorf("errorMessage() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestClient_RefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer tok-42" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"refresh has expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-43"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL, 5*time.Second)

	token, err := c.RefreshToken(context.Background(), "tok-42")
	require.NoError(t, err)
	assert.Equal(t, "tok-43", token)

	_, err = c.RefreshToken(context.Background(), "tok-old")
	var rej *session.Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusForbidden, rej.StatusCode)
	assert.Equal(t, "refresh has expired", rej.Message)
}
