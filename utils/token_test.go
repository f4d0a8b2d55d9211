package utils

import (
	"strings"
	"testing"
)

func TestJwtGenerate_RoundTripsClaims(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	token, err := JwtGenerate(42, "Ramesh")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	parsed, err := JwtValidate(token)
	if err != nil || !parsed.Valid {
		t.Fatalf("JwtValidate: %v", err)
	}
	claim, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claim.ID != 42 || claim.Name != "Ramesh" {
		t.Fatalf("unexpected claim %+v", claim)
	}
}

func TestJwtValidate_RejectsForeignSecret(t *testing.T) {
	t.Setenv("API_SECRET", "one")
	token, err := JwtGenerate(1, "a")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	t.Setenv("API_SECRET", "two")
	if parsed, err := JwtValidate(token); err == nil && parsed.Valid {
		t.Fatalf("expected token signed with another secret to fail")
	}
	if _, err := JwtValidate(strings.Repeat("x", 20)); err == nil {
		t.Fatalf("expected garbage token to fail")
	}
}
