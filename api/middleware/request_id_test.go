package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(requestIDHeader, "checkout-retry_2.1")
	resp := httptest.NewRecorder()

	RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != "checkout-retry_2.1" {
		t.Fatalf("expected inbound id echoed, got %q", got)
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	cases := map[string]string{
		"missing":  "",
		"spaces":   "a b",
		"injected": "id\r\nX-Evil: 1",
		"too long": strings.Repeat("a", maxRequestIDLen+1),
	}
	for name, inbound := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if inbound != "" {
				req.Header[requestIDHeader] = []string{inbound}
			}
			resp := httptest.NewRecorder()

			RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(resp, req)

			if _, err := uuid.Parse(resp.Header().Get(requestIDHeader)); err != nil {
				t.Fatalf("expected a minted uuid, got %q", resp.Header().Get(requestIDHeader))
			}
		})
	}
}

func TestRecovererWritesInternalEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()

	Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map in order page")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"INTERNAL_ERROR"`) || strings.Contains(body, "nil map") {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
