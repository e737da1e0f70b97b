package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"frontdesk-order-services/internal/auth"
)

func TestStaffAuthAndRequire(t *testing.T) {
	outlet := "3"
	token, err := auth.IssueAccessToken(auth.Claims{UserID: "9", Role: auth.RoleKitchen, OutletID: &outlet}, "secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen *AuthContext
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	kitchen := StaffAuth("secret")(Require(auth.PermKitchen)(ok))
	req := httptest.NewRequest(http.MethodGet, "/api/kots", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	kitchen.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != 9 || seen.OutletID != 3 {
		t.Fatalf("unexpected auth context: %+v", seen)
	}
	if actor := seen.Actor(); actor.Role != "kitchen" {
		t.Fatalf("expected lowercased role, got %q", actor.Role)
	}

	payments := StaffAuth("secret")(Require(auth.PermPayments)(ok))
	rec = httptest.NewRecorder()
	payments.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	kitchen.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kots", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var got string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-Id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got != "abc" || rec.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("expected correlation id to be reused, got %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestLatencyTracker(t *testing.T) {
	tracker := NewLatencyTracker(4)
	for _, v := range []int64{10, 20, 30, 40, 50} {
		tracker.Record("GET /x", v)
	}
	snap := tracker.Snapshot()
	if len(snap) != 1 || snap[0].Samples != 4 {
		t.Fatalf("expected one route with 4 samples, got %+v", snap)
	}
	// window holds 50,20,30,40
	if snap[0].P50Ms != 30 || snap[0].P95Ms != 50 {
		t.Fatalf("unexpected percentiles: %+v", snap[0])
	}
}
