package cloudapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quill-cms/quill/internal/branding"
	"golang.org/x/oauth2"
)

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("cloud API rejected the credentials")

// CLIConfig is the public configuration served at {base}/config.
type CLIConfig struct {
	JWKSURL           string `json:"jwksUrl"`
	ClientID          string `json:"clientId"`
	BaseURL           string `json:"baseUrl"`
	TokenURL          string `json:"tokenUrl"`
	DeviceCodeAuthURL string `json:"deviceCodeAuthUrl"`
	Audience          string `json:"audience"`
	Scope             string `json:"scope"`
}

// User is the profile returned by {base}/me.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client is a small HTTP client for the cloud CLI API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// New creates a Client pointed at the branded API unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(branding.CloudAPIURL(), "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Config fetches the public CLI configuration. It is never cached.
func (c *Client) Config(ctx context.Context) (*CLIConfig, error) {
	var cfg CLIConfig
	if err := c.getJSON(ctx, c.httpClient, "/config", &cfg); err != nil {
		return nil, fmt.Errorf("fetching CLI config: %w", err)
	}
	if cfg.JWKSURL == "" {
		return nil, errors.New("fetching CLI config: response has no jwksUrl")
	}
	return &cfg, nil
}

// Me fetches the profile of the user owning the configured token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if c.token == "" {
		return nil, ErrUnauthorized
	}

	// oauth2.NewClient picks the transport from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
	authed := oauth2.NewClient(ctx, ts)

	var u User
	if err := c.getJSON(ctx, authed, "/me", &u); err != nil {
		return nil, fmt.Errorf("fetching user profile: %w", err)
	}
	return &u, nil
}

func (c *Client) getJSON(ctx context.Context, hc *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", branding.CLIName()+"-cli")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cloud API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}
