package clients

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pub)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func newTestClient(t *testing.T, apiBase, pubPEM string) *LicenseClient {
	t.Helper()
	c, err := NewLicenseClient(apiBase, "ark-watchdog", pubPEM)
	require.NoError(t, err)
	c.tokenPath = filepath.Join(t.TempDir(), "license_token.json")
	return c
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"aud":     "ark-watchdog",
		"machine": MachineFingerprint(),
		"plan":    "pro",
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func TestMachineFingerprint(t *testing.T) {
	fp := MachineFingerprint()
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, MachineFingerprint(), "fingerprint is stable")
}

func TestRequireValidWithCachedToken(t *testing.T) {
	key, pub := testKeyPair(t)
	c := newTestClient(t, "http://unreachable.invalid", pub)
	c.saveCachedToken(signToken(t, key, validClaims()))

	ok, msg := c.RequireValid(context.Background(), false, "")
	assert.True(t, ok, msg)
	assert.Contains(t, msg, "plan=pro")
}

func TestRequireValidRejectsExpiredOffline(t *testing.T) {
	key, pub := testKeyPair(t)
	c := newTestClient(t, "http://unreachable.invalid", pub)
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	c.saveCachedToken(signToken(t, key, claims))

	ok, _ := c.RequireValid(context.Background(), false, "")
	assert.False(t, ok)
}

func TestRequireValidRejectsWrongMachine(t *testing.T) {
	key, pub := testKeyPair(t)
	c := newTestClient(t, "http://unreachable.invalid", pub)
	claims := validClaims()
	claims["machine"] = "0123456789abcdef"
	c.saveCachedToken(signToken(t, key, claims))

	ok, _ := c.RequireValid(context.Background(), false, "")
	assert.False(t, ok)
}

func TestRequireValidRejectsWrongSigner(t *testing.T) {
	otherKey, _ := testKeyPair(t)
	_, pub := testKeyPair(t)
	c := newTestClient(t, "http://unreachable.invalid", pub)
	c.saveCachedToken(signToken(t, otherKey, validClaims()))

	ok, _ := c.RequireValid(context.Background(), false, "")
	assert.False(t, ok)
}

func TestRequireValidActivatesOnline(t *testing.T) {
	key, pub := testKeyPair(t)
	token := ""

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/activate", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ARK-1234", req["key"])
		assert.Equal(t, MachineFingerprint(), req["machine"])
		assert.Equal(t, "ark-watchdog", req["app"])
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, pub)
	token = signToken(t, key, validClaims())

	ok, msg := c.RequireValid(context.Background(), true, "ARK-1234")
	assert.True(t, ok, msg)

	// the fresh token is cached for the next offline check
	ok, _ = c.RequireValid(context.Background(), false, "")
	assert.True(t, ok)
}

func TestRequireValidNoTokenNoKey(t *testing.T) {
	_, pub := testKeyPair(t)
	c := newTestClient(t, "http://unreachable.invalid", pub)

	ok, msg := c.RequireValid(context.Background(), true, "")
	assert.False(t, ok)
	assert.Contains(t, msg, "no valid license token")
}
