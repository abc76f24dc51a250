package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", []string{"client", "vet"}, "secret")
	if err != nil {
		t.Fatalf("MakeToken: %v", err)
	}
	c, err := ParseToken(tok, "secret")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if c.UserID != "user-1" {
		t.Errorf("uid = %q", c.UserID)
	}
	if !c.HasRole("vet") || c.HasRole("admin") {
		t.Errorf("roles = %v", c.Roles)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tok, _ := MakeToken("user-1", nil, "secret")
	if _, err := ParseToken(tok, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseTokenRejectsNone(t *testing.T) {
	c := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(raw, "secret"); err == nil {
		t.Fatal("unsigned token accepted")
	}
}

func TestParseTokenExpired(t *testing.T) {
	c := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(raw, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if raw == "" || hash == "" || raw == hash {
		t.Fatalf("raw=%q hash=%q", raw, hash)
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash mismatch on recompute")
	}
	raw2, _, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if raw2 == raw {
		t.Error("tokens not unique")
	}
}
