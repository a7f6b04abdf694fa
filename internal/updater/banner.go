package updater

import (
	"context"
	"fmt"
	"io"

	"github.com/quill-cms/quill/internal/branding"
)

// CheckAndPrintBanner prints an update banner when a newer framework
// version is known. A stale cache is refreshed first, bounded by ctx;
// every failure is silent.
func (c *Checker) CheckAndPrintBanner(ctx context.Context, w io.Writer, configDir string) {
	cache, err := LoadCache(configDir)
	if err != nil {
		cache = nil
	}

	if IsCacheStale(cache, c.currentVersion, DefaultCacheMaxAge, c.now()) {
		if fresh, err := c.Refresh(ctx, configDir); err == nil {
			cache = fresh
		}
	}

	if cache != nil && cache.CurrentVersion == c.currentVersion && cache.UpdateAvailable {
		PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion)
	}
}

// Refresh fetches the latest version and rewrites the cache.
func (c *Checker) Refresh(ctx context.Context, configDir string) (*VersionCache, error) {
	latest, err := c.LatestVersion(ctx)
	if err != nil {
		return nil, err
	}
	available, err := IsUpdateAvailable(c.currentVersion, latest)
	if err != nil {
		return nil, err
	}

	cache := &VersionCache{
		LatestVersion:   latest,
		CurrentVersion:  c.currentVersion,
		CheckedAt:       c.now(),
		UpdateAvailable: available,
	}
	if err := SaveCache(configDir, cache); err != nil {
		return cache, err
	}
	return cache, nil
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\n%s %s is available (this CLI generates %s).\n", branding.DisplayName(), latest, current)
	fmt.Fprintf(w, "    Upgrade %s to create projects on the latest release.\n\n", branding.CLIName())
}
