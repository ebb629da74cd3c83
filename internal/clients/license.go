/**
 * License Client - Client-side activation gate
 *
 * The canonical machine id is the first 16 hex chars of
 * SHA256(lower(hostname) + "|" + lower(mac)). A cached RS256 token is
 * verified offline first (signature, audience, expiry, machine claim);
 * activation goes online only when allowed and a license key is available.
 * Token issuing and key management live on the server side.
 */

package clients

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LicenseClient validates and activates license tokens.
type LicenseClient struct {
	apiBase    string
	appID      string
	publicKey  *rsa.PublicKey
	tokenPath  string
	httpClient *http.Client
}

type cachedToken struct {
	Token   string `json:"token"`
	SavedAt int64  `json:"saved_at"`
}

type activateRequest struct {
	Key     string `json:"key"`
	Machine string `json:"machine"`
	App     string `json:"app"`
}

type activateResponse struct {
	Token string `json:"token"`
}

// NewLicenseClient builds a client for the given license server and app id.
// publicKeyPEM must hold the server's RSA public key.
func NewLicenseClient(apiBase, appID, publicKeyPEM string) (*LicenseClient, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse license public key: %w", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return &LicenseClient{
		apiBase:    strings.TrimRight(apiBase, "/"),
		appID:      appID,
		publicKey:  key,
		tokenPath:  filepath.Join(dir, "license_token.json"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

// MachineFingerprint returns the canonical 16-hex machine id.
func MachineFingerprint() string {
	host, _ := os.Hostname()
	mac := primaryMAC()
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(host)) + "|" + strings.ToLower(mac)))
	return hex.EncodeToString(sum[:])[:16]
}

func primaryMAC() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		return strings.ReplaceAll(iface.HardwareAddr.String(), ":", "")
	}
	return ""
}

// RequireValid checks the cached token, then optionally activates online with
// licenseKey. Returns whether the gate passes and a human-readable status.
func (c *LicenseClient) RequireValid(ctx context.Context, allowOnline bool, licenseKey string) (bool, string) {
	if tok := c.loadCachedToken(); tok != "" {
		claims, err := c.verifyToken(tok)
		if err == nil {
			return true, fmt.Sprintf("valid - plan=%v expires=%v", claims["plan"], expiryString(claims))
		}
		if !allowOnline {
			return false, fmt.Sprintf("invalid token: %v", err)
		}
	}

	if allowOnline && licenseKey != "" {
		tok, err := c.activate(ctx, licenseKey)
		if err != nil {
			return false, fmt.Sprintf("activation failed: %v", err)
		}
		if _, err := c.verifyToken(tok); err != nil {
			return false, fmt.Sprintf("activation returned an unusable token: %v", err)
		}
		c.saveCachedToken(tok)
		return true, "activated and valid"
	}

	return false, "no valid license token found"
}

func (c *LicenseClient) verifyToken(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.publicKey, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(c.appID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	local := MachineFingerprint()
	tokenMachine, _ := claims["machine"].(string)
	tokenMachine = strings.ToLower(tokenMachine)
	if len(tokenMachine) > 16 {
		tokenMachine = tokenMachine[:16]
	}
	if tokenMachine != local {
		return nil, fmt.Errorf("token machine %q does not match this machine %q", tokenMachine, local)
	}
	return claims, nil
}

func (c *LicenseClient) activate(ctx context.Context, licenseKey string) (string, error) {
	body, err := json.Marshal(activateRequest{
		Key:     licenseKey,
		Machine: MachineFingerprint(),
		App:     c.appID,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/api/activate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("activate failed %d: %s", resp.StatusCode, string(msg))
	}
	var ar activateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("failed to decode activation response: %w", err)
	}
	if ar.Token == "" {
		return "", fmt.Errorf("activation response carried no token")
	}
	return ar.Token, nil
}

func (c *LicenseClient) loadCachedToken() string {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return ""
	}
	var ct cachedToken
	if err := json.Unmarshal(data, &ct); err != nil {
		return ""
	}
	return ct.Token
}

func (c *LicenseClient) saveCachedToken(token string) {
	data, err := json.MarshalIndent(cachedToken{Token: token, SavedAt: time.Now().Unix()}, "", "  ")
	if err != nil {
		return
	}
	tmp := c.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, c.tokenPath)
}

// ClearCachedToken removes the cached token, if any.
func (c *LicenseClient) ClearCachedToken() {
	_ = os.Remove(c.tokenPath)
}

func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve cache directory: %w", err)
		}
	}
	dir := filepath.Join(base, "ArkWatchdog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

func expiryString(claims jwt.MapClaims) string {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "?"
	}
	return exp.UTC().Format("2006-01-02 15:04:05")
}
