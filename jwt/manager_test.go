package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		Secret:        []byte("test-secret-test-secret-test-secret"),
		AccessExpiry:  "15m",
		RefreshExpiry: "7d",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestParseExpiryGrammar(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"", DefaultExpiry},
		{"15", DefaultExpiry},
		{"m15", DefaultExpiry},
		{"15w", DefaultExpiry},
		{"-5m", DefaultExpiry},
		{"1.5h", DefaultExpiry},
	}

	for _, c := range cases {
		if got := ParseExpiry(c.in); got != c.want {
			t.Errorf("ParseExpiry(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{AccessExpiry: "15m", RefreshExpiry: "7d"}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestAccessRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignAccess("user-1")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Kind != KindAccess {
		t.Errorf("kind = %q, want %q", claims.Kind, KindAccess)
	}
	if claims.TokenID != "" {
		t.Errorf("access token must not carry a token ID, got %q", claims.TokenID)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignRefresh("user-1", "tok-abc")
	if err != nil {
		t.Fatalf("SignRefresh failed: %v", err)
	}

	claims, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.TokenID != "tok-abc" {
		t.Errorf("claims = {%q %q}, want {user-1 tok-abc}", claims.Subject, claims.TokenID)
	}
}

func TestKindEnforced(t *testing.T) {
	m := newTestManager(t)

	access, err := m.SignAccess("user-1")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}
	refresh, err := m.SignRefresh("user-1", "tok-abc")
	if err != nil {
		t.Fatalf("SignRefresh failed: %v", err)
	}

	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrWrongKind) {
		t.Errorf("ParseRefresh(access token) err = %v, want ErrWrongKind", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrWrongKind) {
		t.Errorf("ParseAccess(refresh token) err = %v, want ErrWrongKind", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignAccess("user-1")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("expected signature error for tampered token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(Config{
		Secret:        []byte("a-completely-different-secret-value"),
		AccessExpiry:  "15m",
		RefreshExpiry: "7d",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := other.SignAccess("user-1")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}
	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected verification failure across secrets")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestManager(t)

	// Craft a token with the same secret but an exp in the past.
	expired := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		Kind: KindRefresh,
		TokenID: "tok-old",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret-test-secret-test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := m.ParseRefresh(signed); !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Errorf("ParseRefresh(expired) err = %v, want ErrTokenExpired", err)
	}
}
