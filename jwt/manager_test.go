package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestCreateAndParseAdminEd25519(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{
		TTL:           15 * time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "gogate",
		Audience:      "admin",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, expires, err := m.CreateAdmin("operator")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if time.Until(expires) <= 14*time.Minute {
		t.Fatalf("unexpected expiry %v", expires)
	}

	claims, err := m.ParseAdmin(token)
	if err != nil {
		t.Fatalf("parse admin: %v", err)
	}
	if claims.Subject != "operator" || claims.Role != AdminRole || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseAdminRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AdminClaims{Role: AdminRole, RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAdmin(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseAdminExpiredWithInjectedClock(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, _, err := m.CreateAdmin("operator")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := m.ParseAdmin(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.ParseAdmin(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAdminRejectsNonAdminRole(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: key})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AdminClaims{Role: "visitor", RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAdmin(token); err == nil {
		t.Fatal("expected non-admin role to be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{TTL: 0, SigningMethod: MethodHS256, PrivateKey: make([]byte, 32)}); err == nil {
		t.Fatal("expected zero TTL to be rejected")
	}
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short hs256 key to be rejected")
	}
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: "rs512"}); err == nil {
		t.Fatal("expected unsupported method to be rejected")
	}
}
