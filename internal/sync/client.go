// Package sync pushes local changes to the binge sync server and pulls
// changes made on other devices.
package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/logger"
)

// DefaultServerURL is used until a server is configured; BINGE_SERVER overrides both
const DefaultServerURL = "http://localhost:8080"

// AutoSyncInterval is how long a CLI session waits before syncing on its own
const AutoSyncInterval = 12 * time.Hour

// ErrNotLoggedIn is returned by operations that need a session
var ErrNotLoggedIn = errors.New("not logged in")

// Config holds sync configuration
type Config struct {
	ServerURL     string `json:"server_url"`
	Token         string `json:"token"`
	UserID        string `json:"user_id"`
	LastSync      int64  `json:"last_sync"`                 // Highest server version seen
	LastSyncTime  int64  `json:"last_sync_time,omitempty"`  // Unix seconds
	HasSyncedOnce bool   `json:"has_synced_once,omitempty"` // Enables automatic syncing
	EncryptionKey string `json:"encryption_key,omitempty"`  // Base64 derived key
	Salt          string `json:"salt,omitempty"`            // Base64 salt for key derivation
}

// Client is the sync client
type Client struct {
	config     *Config
	configPath string
	httpClient *http.Client
	crypto     *Crypto
	now        func() time.Time
}

// NewClient creates a client using ~/.binge/sync.json
func NewClient() (*Client, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return NewClientWithPath(filepath.Join(dir, "sync.json"))
}

// NewClientWithPath creates a client whose configuration lives at path
func NewClientWithPath(path string) (*Client, error) {
	c := &Client{
		configPath: path,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	if err := c.loadConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) loadConfig() error {
	c.config = &Config{ServerURL: DefaultServerURL}
	defer func() {
		if url := os.Getenv("BINGE_SERVER"); url != "" {
			c.config.ServerURL = url
		}
	}()

	data, err := os.ReadFile(c.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sync config: %w", err)
	}
	if err := json.Unmarshal(data, c.config); err != nil {
		return fmt.Errorf("failed to parse sync config: %w", err)
	}

	if c.config.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.config.EncryptionKey)
		if err != nil {
			return fmt.Errorf("invalid encryption key: %w", err)
		}
		if c.crypto, err = NewCrypto(key); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) saveConfig() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0600)
}

// SetServer sets the sync server URL
func (c *Client) SetServer(url string) error {
	c.config.ServerURL = strings.TrimRight(url, "/")
	return c.saveConfig()
}

// IsLoggedIn returns true if user is logged in
func (c *Client) IsLoggedIn() bool {
	return c.config.Token != ""
}

// Token returns the session token, empty when logged out
func (c *Client) Token() string {
	return c.config.Token
}

// GetStatus returns the server URL, user id and last seen server version
func (c *Client) GetStatus() (string, string, int64) {
	return c.config.ServerURL, c.config.UserID, c.config.LastSync
}

// LastSyncTime returns when the last successful sync finished
func (c *Client) LastSyncTime() time.Time {
	if c.config.LastSyncTime == 0 {
		return time.Time{}
	}
	return time.Unix(c.config.LastSyncTime, 0)
}

// CanAutoSync reports whether background syncing is allowed
func (c *Client) CanAutoSync() bool {
	return c.IsLoggedIn() && c.config.HasSyncedOnce
}

// ShouldAutoSync reports whether the periodic CLI sync is due
func (c *Client) ShouldAutoSync() bool {
	return c.CanAutoSync() && c.now().Sub(c.LastSyncTime()) >= AutoSyncInterval
}

// UpdateSyncTime records a successful sync
func (c *Client) UpdateSyncTime() error {
	c.config.LastSyncTime = c.now().Unix()
	return c.saveConfig()
}

// SetSyncedOnce enables automatic syncing after the first manual sync
func (c *Client) SetSyncedOnce() error {
	c.config.HasSyncedOnce = true
	return c.saveConfig()
}

// HasSyncedOnce reports whether a manual sync ever succeeded
func (c *Client) HasSyncedOnce() bool {
	return c.config.HasSyncedOnce
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Register creates a new account and logs in
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var result authResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	return c.setSession(result)
}

// Login authenticates with username and password
func (c *Client) Login(ctx context.Context, username, password string) error {
	var result authResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/login", map[string]string{
		"username": username,
		"password": password,
	}, &result)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return c.setSession(result)
}

func (c *Client) setSession(r authResponse) error {
	c.config.Token = r.Token
	c.config.UserID = r.UserID
	c.config.LastSync = 0
	return c.saveConfig()
}

// Logout ends the session on the server when reachable and forgets it locally
func (c *Client) Logout(ctx context.Context) error {
	if c.IsLoggedIn() {
		if err := c.do(ctx, http.MethodPost, "/api/v1/logout", nil, nil); err != nil {
			logger.Warn("Server logout failed", logger.F("error", err))
		}
	}

	c.config.Token = ""
	c.config.UserID = ""
	c.config.LastSync = 0
	c.config.LastSyncTime = 0
	c.config.HasSyncedOnce = false
	return c.saveConfig()
}

// GenerateEncryptionKey derives the payload key from a password. A nil salt
// generates a new one; pass the salt of another device to share its key.
// A new key restarts pulling from the first version. It returns the key fingerprint.
func (c *Client) GenerateEncryptionKey(password string, salt []byte) (string, error) {
	if salt == nil {
		var err error
		if salt, err = GenerateSalt(); err != nil {
			return "", err
		}
	}

	key := DeriveKey(password, salt)
	crypto, err := NewCrypto(key)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(key)
	if encoded != c.config.EncryptionKey {
		// Entities skipped under the old key are pulled again
		c.config.LastSync = 0
	}

	c.crypto = crypto
	c.config.EncryptionKey = encoded
	c.config.Salt = base64.StdEncoding.EncodeToString(salt)
	if err := c.saveConfig(); err != nil {
		return "", err
	}
	return crypto.Fingerprint(), nil
}

// KeyFingerprint returns the fingerprint of the configured key, or "" if payloads are not encrypted
func (c *Client) KeyFingerprint() string {
	if c.crypto == nil {
		return ""
	}
	return c.crypto.Fingerprint()
}

// Salt returns the base64 salt of the configured key
func (c *Client) Salt() string {
	return c.config.Salt
}

// ClearRemote deletes everything stored on the server for this account
func (c *Client) ClearRemote(ctx context.Context) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/clear", nil, nil); err != nil {
		return fmt.Errorf("failed to clear remote data: %w", err)
	}
	c.config.LastSync = 0
	return c.saveConfig()
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	url := c.config.ServerURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	logger.Debug("HTTP Request", logger.F("method", method), logger.F("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", url))
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP Response", logger.F("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
