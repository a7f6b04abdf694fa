package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/quill-cms/quill/internal/branding"
)

// DefaultRegistryURL is the public npm registry.
const DefaultRegistryURL = "https://registry.npmjs.org"

// Checker looks up the latest published framework version.
type Checker struct {
	currentVersion string
	packageName    string
	registryURL    string
	httpClient     *http.Client
	now            func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) {
		ch.httpClient = c
	}
}

// WithRegistryURL points the checker at another npm registry.
func WithRegistryURL(u string) Option {
	return func(ch *Checker) {
		ch.registryURL = strings.TrimRight(u, "/")
	}
}

// WithClock overrides time.Now for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(ch *Checker) {
		ch.now = now
	}
}

// New creates a Checker comparing against currentVersion.
func New(currentVersion string, opts ...Option) *Checker {
	c := &Checker{
		currentVersion: currentVersion,
		packageName:    branding.PackageScope() + "/" + branding.CLIName(),
		registryURL:    DefaultRegistryURL,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentVersion returns the version this checker was created with.
func (c *Checker) CurrentVersion() string {
	return c.currentVersion
}

// LatestVersion fetches the version tagged latest in the registry.
func (c *Checker) LatestVersion(ctx context.Context) (string, error) {
	// Scoped names are requested as @scope%2Fname.
	endpoint := fmt.Sprintf("%s/%s/latest", c.registryURL, url.PathEscape(c.packageName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching latest version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("package %s not found in registry", c.packageName)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return "", fmt.Errorf("parsing registry response: %w", err)
	}
	if manifest.Version == "" {
		return "", fmt.Errorf("registry response has no version")
	}
	return manifest.Version, nil
}

// CompareVersions compares two version strings using semver.
// Returns -1 if current < latest, 0 if equal, 1 if current > latest.
// A leading "v" is ignored.
func CompareVersions(current, latest string) (int, error) {
	cv, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return 0, fmt.Errorf("parsing current version %q: %w", current, err)
	}
	lv, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return 0, fmt.Errorf("parsing latest version %q: %w", latest, err)
	}
	return cv.Compare(lv), nil
}

// IsUpdateAvailable returns true if latest is newer than current.
func IsUpdateAvailable(current, latest string) (bool, error) {
	cmp, err := CompareVersions(current, latest)
	if err != nil {
		return false, err
	}
	return cmp == -1, nil
}
