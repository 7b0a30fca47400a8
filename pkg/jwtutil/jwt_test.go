package jwtutil

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	g := NewGenerator([]byte("s3cret"), "rental", time.Hour)
	v := NewVerifier([]byte("s3cret"), "rental")

	tok, jti, exp, err := g.Generate("u1", "jane@example.com", "landlord")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if jti == "" || time.Until(exp) <= 0 {
		t.Fatalf("bad jti %q or expiry %v", jti, exp)
	}

	claims, err := v.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.UserID != "u1" || claims.ID != jti || claims.UserType != "landlord" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	g := NewGenerator([]byte("s3cret"), "rental", time.Hour)
	tok, _, _, _ := g.Generate("u1", "jane@example.com", "")

	expired := NewGenerator([]byte("s3cret"), "rental", -time.Minute)
	old, _, _, _ := expired.Generate("u1", "jane@example.com", "")

	cases := map[string]struct {
		v   *Verifier
		tok string
	}{
		"wrong secret": {NewVerifier([]byte("other"), "rental"), tok},
		"wrong issuer": {NewVerifier([]byte("s3cret"), "someone-else"), tok},
		"expired":      {NewVerifier([]byte("s3cret"), "rental"), old},
		"garbage":      {NewVerifier([]byte("s3cret"), "rental"), "a.b.c"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tc.v.ParseAndValidate(tc.tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	if _, _, _, err := NewGenerator(nil, "rental", time.Hour).Generate("u1", "", ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
