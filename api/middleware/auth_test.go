package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/auth/session"
)

type stubSessions struct {
	creds session.Credentials
	err   error
	ids   []string
}

func (s *stubSessions) Load(ctx context.Context, sessionID string) (session.Credentials, error) {
	s.ids = append(s.ids, sessionID)
	return s.creds, s.err
}

func captureAuth(got *auth.Context, sessionID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = AuthFromContext(r.Context())
		*sessionID = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthSeedsContext(t *testing.T) {
	store := &stubSessions{creds: session.Credentials{UserID: 9, Token: "backend", Role: "ADMIN"}}
	var got auth.Context
	var sid string

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer sess-9")
	resp := httptest.NewRecorder()
	Auth(store, nil)(captureAuth(&got, &sid)).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, got %d", resp.Code)
	}
	if got.UserID != 9 || got.Token != "backend" || !got.IsAdmin() {
		t.Fatalf("unexpected auth context %+v", got)
	}
	if sid != "sess-9" || store.ids[0] != "sess-9" {
		t.Fatalf("unexpected session id %q", sid)
	}
}

func TestAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"not bearer", "Basic abc", nil, http.StatusUnauthorized},
		{"unknown session", "Bearer x", session.ErrSessionNotFound, http.StatusUnauthorized},
		{"expired token", "Bearer x", session.ErrSessionExpired, http.StatusUnauthorized},
		{"redis down", "Bearer x", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			Auth(&stubSessions{err: tt.err}, nil)(next).ServeHTTP(resp, req)
			if resp.Code != tt.status {
				t.Fatalf("expected %d got %d", tt.status, resp.Code)
			}
			if called {
				t.Fatalf("handler must not run")
			}
		})
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var got auth.Context
	var sid string
	resp := httptest.NewRecorder()
	OptionalAuth(&stubSessions{}, nil)(captureAuth(&got, &sid)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("anonymous request should pass, got %d", resp.Code)
	}
	if got.Authenticated() || sid != "" {
		t.Fatalf("expected anonymous context, got %+v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	resp = httptest.NewRecorder()
	OptionalAuth(&stubSessions{err: session.ErrSessionExpired}, nil)(captureAuth(&got, &sid)).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("a presented but expired session is still rejected, got %d", resp.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		ac     auth.Context
		status int
	}{
		{auth.Context{}, http.StatusUnauthorized},
		{auth.Context{UserID: 1, Token: "t", Role: "USER"}, http.StatusForbidden},
		{auth.Context{UserID: 1, Token: "t", Role: "ADMIN"}, http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", nil)
		req = req.WithContext(WithAuth(req.Context(), c.ac, "s"))
		resp := httptest.NewRecorder()
		RequireAdmin(nil)(next).ServeHTTP(resp, req)
		if resp.Code != c.status {
			t.Fatalf("role %q: expected %d got %d", c.ac.Role, c.status, resp.Code)
		}
	}
}
