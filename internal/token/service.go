package token

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quill-cms/quill/internal/cloudapi"
	"github.com/quill-cms/quill/internal/localconfig"
	"github.com/quill-cms/quill/internal/logging"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	msgSaveFailed    = "There was a problem saving your token. Please try again."
	msgEraseFailed   = "There was an issue removing your login information. Please try logging out again."
	msgNotLoggedIn   = "You need to be logged in to use this feature. Please log in and try again."
	msgBadLoginInfo  = "There seems to be a problem with your login information. Please try logging in again."
	msgNoToken       = "No token found. Please login first."
	msgTokenRejected = "Unable to proceed: Token is expired or not valid. Please login again."
)

var (
	errEmptyToken     = errors.New("token is empty")
	errMalformedToken = errors.New("token could not be decoded")
)

// validMethods lists the signing algorithms accepted from the JWKS issuer.
var validMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}

// ConfigFetcher provides the remote CLI configuration.
type ConfigFetcher interface {
	Config(ctx context.Context) (*cloudapi.CLIConfig, error)
}

// RecordStore persists the local cloud record.
type RecordStore interface {
	Load() (*localconfig.Record, error)
	Save(rec *localconfig.Record) error
}

// Service validates and persists the cloud login token.
type Service struct {
	store  RecordStore
	api    ConfigFetcher
	keys   KeyResolver
	logger *zap.Logger
	out    io.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

// WithOutput sets where user-facing messages are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// WithKeyResolver replaces the JWKS lookup.
func WithKeyResolver(k KeyResolver) Option {
	return func(s *Service) { s.keys = k }
}

// NewService creates a Service over the given store and config source.
func NewService(store RecordStore, api ConfigFetcher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		api:    api,
		keys:   &JWKSFetcher{},
		logger: zap.NewNop(),
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveToken stores token in the local record. Failures are reported to the
// user and logged but never returned.
func (s *Service) SaveToken(token string) {
	rec, err := s.store.Load()
	if err != nil {
		s.logger.Debug("loading cloud record", zap.Error(err))
		s.say(msgSaveFailed)
		return
	}

	rec.Token = token
	if err := s.store.Save(rec); err != nil {
		s.logger.Debug("saving cloud record", zap.Error(err))
		s.say(msgSaveFailed)
	}
}

// EraseToken removes the token from the local record.
func (s *Service) EraseToken() {
	rec, err := s.store.Load()
	if err != nil {
		s.logger.Debug("loading cloud record", zap.Error(err))
		return
	}
	if rec.Token == "" {
		return
	}

	rec.Token = ""
	if err := s.store.Save(rec); err != nil {
		s.logger.Debug("saving cloud record", zap.Error(err))
		s.say(msgEraseFailed)
	}
}

// RetrieveToken returns the stored token when it is still valid.
func (s *Service) RetrieveToken(ctx context.Context) (string, bool) {
	rec, err := s.store.Load()
	if err != nil {
		s.logger.Debug("loading cloud record", zap.Error(err))
		return "", false
	}
	if rec.Token == "" {
		return "", false
	}
	if !s.IsTokenValid(ctx, rec.Token) {
		return "", false
	}
	return rec.Token, true
}

// ValidateToken decodes token and verifies its signature with the JWKS key
// named by the token's kid header. Tokens that cannot be decoded are rejected
// before the JWKS is contacted.
func (s *Service) ValidateToken(ctx context.Context, token, jwksURL string) error {
	if token == "" {
		s.logger.Warn(msgNotLoggedIn)
		return errEmptyToken
	}

	if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
		s.logger.Error(msgBadLoginInfo, zap.Error(err))
		return fmt.Errorf("%w: %v", errMalformedToken, err)
	}

	parser := jwt.NewParser(jwt.WithValidMethods(validMethods))
	_, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return s.keys.SigningKey(ctx, jwksURL, kid)
	})
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}
	return nil
}

// IsTokenValid fetches the remote CLI configuration and verifies token
// against the advertised JWKS. The configuration is fetched even for an
// empty token. Every failure degrades to false.
func (s *Service) IsTokenValid(ctx context.Context, token string) bool {
	cfg, err := s.api.Config(ctx)
	if err != nil {
		s.logger.Debug("fetching CLI config", zap.Error(err))
		return false
	}
	if token == "" {
		return false
	}
	if err := s.ValidateToken(ctx, token, cfg.JWKSURL); err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))
		return false
	}
	return true
}

// GetValidToken returns the stored token after re-checking it, telling the
// user what to do when there is none.
func (s *Service) GetValidToken(ctx context.Context) (string, bool) {
	token, ok := s.RetrieveToken(ctx)
	if !ok {
		s.say(msgNoToken)
		return "", false
	}
	if !s.IsTokenValid(ctx, token) {
		s.say(msgTokenRejected)
		return "", false
	}
	return token, true
}

func (s *Service) say(msg string) {
	fmt.Fprintln(s.out, msg)
}
