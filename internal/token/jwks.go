package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-jose/go-jose/v4"
)

// ErrKeyNotFound is returned when the JWKS has no key for the requested kid.
var ErrKeyNotFound = errors.New("Key not found")

// KeyResolver returns the public key identified by kid in the JWKS at jwksURL.
type KeyResolver interface {
	SigningKey(ctx context.Context, jwksURL, kid string) (any, error)
}

// JWKSFetcher downloads the key set on every lookup.
type JWKSFetcher struct {
	HTTPClient *http.Client
}

// SigningKey implements KeyResolver.
func (f *JWKSFetcher) SigningKey(ctx context.Context, jwksURL, kid string) (any, error) {
	set, err := f.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	for _, key := range set.Key(kid) {
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		if !key.Valid() {
			continue
		}
		if key.IsPublic() {
			return key.Key, nil
		}
		return key.Public().Key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (f *JWKSFetcher) fetch(ctx context.Context, jwksURL string) (*jose.JSONWebKeySet, error) {
	hc := f.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching JWKS: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading JWKS: %w", err)
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing JWKS: %w", err)
	}
	return &set, nil
}
