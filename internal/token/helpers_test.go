package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/quill-cms/quill/internal/cloudapi"
	"github.com/quill-cms/quill/internal/localconfig"
)

const testKID = "test-key"

// jwksServer serves a key set containing the public half of key.
type jwksServer struct {
	URL  string
	hits atomic.Int32
}

func newJWKSServer(t *testing.T, key *rsa.PrivateKey) *jwksServer {
	t.Helper()
	js := &jwksServer{}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     testKID,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshaling JWKS: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		js.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	js.URL = srv.URL
	return js
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

// fakeConfig counts remote configuration fetches.
type fakeConfig struct {
	cfg   *cloudapi.CLIConfig
	err   error
	calls atomic.Int32
}

func (f *fakeConfig) Config(context.Context) (*cloudapi.CLIConfig, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	c := *f.cfg
	return &c, nil
}

// memStore is an in-memory RecordStore.
type memStore struct {
	rec     localconfig.Record
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() (*localconfig.Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	r := m.rec
	return &r, nil
}

func (m *memStore) Save(rec *localconfig.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rec = *rec
	return nil
}

var errDisk = errors.New("disk on fire")
