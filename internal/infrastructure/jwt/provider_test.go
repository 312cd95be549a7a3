package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/securescan-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return newProvider(key, &key.PublicKey, 15*time.Minute)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.Sign("a@x.com")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, PurposeEmailVerified, claims.Purpose)
	assert.Len(t, claims.ID, 26)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t)
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := p.Sign("a@x.com")
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_OtherKey(t *testing.T) {
	tok, err := newTestProvider(t).Sign("a@x.com")
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(tok)
	assert.Error(t, err)
}

func TestVerify_WrongPurpose(t *testing.T) {
	p := newTestProvider(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Purpose: "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@x.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(p.privateKey)
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.ErrorContains(t, err, "unexpected token purpose")
}

func TestNewProvider_FromPEMFiles(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private_key.pem")
	pubPath := filepath.Join(dir, "public_key.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{
		Type: "PUBLIC KEY", Bytes: pubDER,
	}), 0o600))

	p, err := NewProvider(&config.Config{
		JWTPrivateKeyPath:    privPath,
		JWTPublicKeyPath:     pubPath,
		VerificationTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	tok, err := p.Sign("a@x.com")
	require.NoError(t, err)
	_, err = p.Verify(tok)
	assert.NoError(t, err)
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: filepath.Join(t.TempDir(), "nope.pem")})
	assert.ErrorContains(t, err, "read private key")
}
