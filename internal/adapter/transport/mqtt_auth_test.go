package transport

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestDevicePassword_RS256WithProjectAudience(t *testing.T) {
	// Arrange
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Now()

	// Act
	token, err := DevicePassword("voice-arm", key, 24*time.Hour, now)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithAudience("voice-arm"), jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("expected valid token, got %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Errorf("expected 24h lifetime, got %s", got)
	}
}

func TestParsePrivateKey(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	parsed, err := ParsePrivateKey(pemBytes)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("expected parsed key to match")
	}

	if _, err := ParsePrivateKey([]byte("not a key")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestClientIDAndTopic(t *testing.T) {
	if got := ClientID("p", "us-central1", "arms", "arm-1"); got != "projects/p/locations/us-central1/registries/arms/devices/arm-1" {
		t.Errorf("unexpected client id %s", got)
	}
	if got := ConfigTopic("arm-1"); got != "/devices/arm-1/config" {
		t.Errorf("unexpected topic %s", got)
	}
}
