package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	outlet := "12"
	token, err := IssueAccessToken(Claims{UserID: "7", Role: RoleCaptain, OutletID: &outlet}, "secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := VerifyAccessToken(ParseBearerToken("Bearer "+token), "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := claims.Outlet()
	if err != nil || id != 12 {
		t.Fatalf("expected outlet 12, got %d (%v)", id, err)
	}

	if _, err := VerifyAccessToken(token, "other"); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := IssueAccessToken(Claims{UserID: "1", Role: RoleAdmin}, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestOutletRequiredForStaff(t *testing.T) {
	if _, err := (&Claims{Role: RoleCashier}).Outlet(); err == nil {
		t.Fatal("expected cashier without outlet to be rejected")
	}
	if id, err := (&Claims{Role: RoleAdmin}).Outlet(); err != nil || id != 0 {
		t.Fatalf("expected admin to span outlets, got %d (%v)", id, err)
	}
}

func TestAllows(t *testing.T) {
	if Allows(RoleKitchen, PermPayments) {
		t.Fatal("kitchen must not take payments")
	}
	if !Allows(RoleCashier, PermPayments) || !Allows(RoleCaptain, PermKitchen) {
		t.Fatal("expected role grants")
	}
	if Allows(RoleCaptain, PermVoid) {
		t.Fatal("captain must not void without a manager")
	}
}
