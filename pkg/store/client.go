// Package store implements a client for the snap store dashboard API:
// authentication, name registration, assertions, and release status.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/medubelko/snapcraft/pkg/datadir"
)

const (
	// DefaultBaseURL is the production dashboard endpoint.
	DefaultBaseURL = "https://dashboard.snapcraft.io"

	// DefaultSeries is the snap series all current snaps belong to.
	DefaultSeries = "16"

	// CredentialsEnv overrides saved credentials when set.
	CredentialsEnv = "SNAPCRAFT_STORE_CREDENTIALS"
)

// AuthError reports a request the store rejected for lack of valid
// credentials.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("store authentication failed (status %d), run 'snapcraft login'", e.StatusCode)
}

// TwoFactorRequiredError signals that login needs a one-time password.
type TwoFactorRequiredError struct{}

func (e *TwoFactorRequiredError) Error() string {
	return "two-factor authentication required"
}

// APIError is any other non-success response from the dashboard.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store error (status %d)", e.StatusCode)
}

// Client talks to the dashboard API. The zero value is not usable, use
// NewClient.
type Client struct {
	baseURL string
	http    *http.Client
	data    datadir.Dir
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL points the client at a different store, for staging.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient builds a store client with retrying transport.
// Saved credentials are read from data; the SNAPCRAFT_STORE_CREDENTIALS
// environment variable takes precedence when set.
func NewClient(data datadir.Dir, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil

	c := &Client{
		baseURL: DefaultBaseURL,
		http:    rc.StandardClient(),
		data:    data,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// credentials resolves the auth token for a request.
func (c *Client) credentials() (string, error) {
	if tok := os.Getenv(CredentialsEnv); tok != "" {
		return tok, nil
	}
	return c.data.Credentials()
}

// Account describes the developer account as reported by the store.
type Account struct {
	AccountID   string                         `json:"account_id"`
	AccountKeys []AccountKey                   `json:"account_keys"`
	Snaps       map[string]map[string]SnapInfo `json:"snaps"`
}

// AccountKey is a signing key registered with the account.
type AccountKey struct {
	Name             string `json:"name"`
	PublicKeySHA3384 string `json:"public-key-sha3-384"`
}

// SnapInfo is the per-snap record inside the account listing, keyed by
// series and then snap name.
type SnapInfo struct {
	SnapID  string `json:"snap-id"`
	Private bool   `json:"private"`
	Status  string `json:"status"`
}

// Snap looks up the account's snap record for name in the default
// series.
func (a *Account) Snap(name string) (SnapInfo, bool) {
	info, ok := a.Snaps[DefaultSeries][name]
	return info, ok
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

type loginResponse struct {
	Macaroon string `json:"macaroon"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Login exchanges credentials for a store macaroon and saves it in the
// data directory. Returns a *TwoFactorRequiredError when the account
// has two-factor authentication enabled and otp is empty.
func (c *Client) Login(ctx context.Context, email, password, otp string) error {
	body, err := json.Marshal(loginRequest{Email: email, Password: password, OTP: otp})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dev/api/account/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting store: %w", err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && lr.Code == "twofactor-required" {
		return &TwoFactorRequiredError{}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Code: lr.Code, Message: lr.Message}
	}

	return c.data.WriteCredentials(lr.Macaroon)
}

// Logout discards saved credentials.
func (c *Client) Logout() {
	c.data.RemoveCredentials()
}

// AccountInfo fetches the developer account record.
func (c *Client) AccountInfo(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/dev/api/account", nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Register claims a snap name for the account.
func (c *Client) Register(ctx context.Context, name string, private bool, storeID string) error {
	payload := map[string]any{
		"snap_name":  name,
		"is_private": private,
	}
	if storeID != "" {
		payload["store"] = storeID
	}
	return c.do(ctx, http.MethodPost, "/dev/api/register-name/", payload, nil)
}

// RegisterKey submits a signed account-key-request assertion so the key
// may be used to sign further assertions.
func (c *Client) RegisterKey(ctx context.Context, assertion []byte) error {
	payload := map[string]any{"account_key_request": string(assertion)}
	return c.do(ctx, http.MethodPost, "/dev/api/account/account-key", payload, nil)
}

// ChannelStatus is one released revision in the status map.
type ChannelStatus struct {
	Channel  string `json:"channel"`
	Version  string `json:"version"`
	Revision int    `json:"revision"`
	Info     string `json:"info"`
}

// Status returns the channel map of a published snap, keyed by
// architecture and then track.
func (c *Client) Status(ctx context.Context, name, arch string) (map[string]map[string][]ChannelStatus, error) {
	path := fmt.Sprintf("/dev/api/snaps/%s/status", name)
	if arch != "" {
		path += "?architecture=" + arch
	}
	var out struct {
		ChannelMapTree map[string]map[string]map[string][]ChannelStatus `json:"channel_map_tree"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	// Flatten the series level, every current snap lives in the default
	// series.
	result := make(map[string]map[string][]ChannelStatus)
	for track, series := range out.ChannelMapTree {
		for _, archMap := range series {
			for a, channels := range archMap {
				if result[a] == nil {
					result[a] = make(map[string][]ChannelStatus)
				}
				result[a][track] = append(result[a][track], channels...)
			}
		}
	}
	return result, nil
}

// Validation is one gating assertion between an approving snap and a
// gated snap.
type Validation struct {
	ApprovedName     string `json:"approved-snap-name"`
	ApprovedID       string `json:"approved-snap-id"`
	ApprovedRevision string `json:"approved-snap-revision"`
	Revision         string `json:"revision"`
	Revoked          string `json:"revoked"`
	Required         bool   `json:"required"`
}

// Validations lists the gating assertions for a snap.
func (c *Client) Validations(ctx context.Context, snapID string) ([]Validation, error) {
	var out []Validation
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/dev/api/snaps/%s/validations", snapID), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PushValidation uploads a signed validation assertion.
func (c *Client) PushValidation(ctx context.Context, snapID string, assertion []byte) error {
	payload := map[string]any{"assertion": string(assertion)}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/dev/api/snaps/%s/validations", snapID), payload, nil)
}

// PushSnapBuild uploads a signed snap-build assertion.
func (c *Client) PushSnapBuild(ctx context.Context, snapID string, assertion []byte) error {
	payload := map[string]any{"assertion": string(assertion)}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/dev/api/snaps/%s/builds", snapID), payload, nil)
}

// UploadMetadata replaces the store listing metadata. With force, the
// upload overwrites changes made through the web UI.
func (c *Client) UploadMetadata(ctx context.Context, snapID string, metadata map[string]string, force bool) error {
	path := fmt.Sprintf("/dev/api/snaps/%s/metadata", snapID)
	if force {
		path += "?conflict=replace"
	}
	return c.do(ctx, http.MethodPut, path, metadata, nil)
}

// do performs an authenticated JSON request, decoding a success body
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.credentials()
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Macaroon "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Code = e.Code
			apiErr.Message = e.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding store response: %w", err)
		}
	}
	return nil
}
