package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "12345678901234567890123456789012"

func TestNewServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewService("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewService(testSecret, 0); err == nil {
		t.Error("expected error for zero expiry")
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewService(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.IssueToken("producer-1", []string{"billing"})
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(resp.ExpiresAt) <= 0 {
		t.Errorf("token already expired: %v", resp.ExpiresAt)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Subject != "producer-1" {
		t.Errorf("subject: %s", claims.Subject)
	}
	if !claims.Allows("billing") || claims.Allows("default") {
		t.Errorf("namespace scope not honoured: %v", claims.Namespaces)
	}
}

func TestUnscopedTokenAllowsAll(t *testing.T) {
	c := &Claims{}
	if !c.Allows("anything") {
		t.Error("unscoped claims should allow every namespace")
	}
}

func TestValidateTokenFailures(t *testing.T) {
	svc, _ := NewService(testSecret, time.Hour)
	other, _ := NewService("abcdefghijabcdefghijabcdefghijab", time.Hour)

	foreign, err := other.IssueToken("x", nil)
	if err != nil {
		t.Fatal(err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-token"},
		{"WrongSecret", foreign.Token},
		{"Expired", expiredToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tc.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	svc, _ := NewService(testSecret, time.Hour)
	if _, err := svc.IssueToken("", nil); err == nil {
		t.Error("expected error for empty subject")
	}
}
