// Package server assembles the admin HTTP server: plugin links, content
// API and webhook management on top of one sealed registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quill-cms/quill/internal/admin"
	"github.com/quill-cms/quill/internal/document"
	"github.com/quill-cms/quill/internal/logging"
	"github.com/quill-cms/quill/internal/plugin"
	"github.com/quill-cms/quill/internal/webhook"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Config holds the server configuration.
type Config struct {
	Addr     string
	Basename string
	// Webhooks are registered at startup.
	Webhooks []webhook.Webhook
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:     "127.0.0.1:1337",
		Basename: "/admin",
	}
}

// Server serves the admin panel of a set of plugins.
type Server struct {
	config     Config
	logger     *zap.Logger
	registry   *admin.Registry
	translator *admin.Translator
	documents  *document.Service
	webhooks   *webhook.Runner
	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	webhookOpts   []webhook.Option
	documentStore document.Store
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWebhookOptions configures the webhook runner.
func WithWebhookOptions(opts ...webhook.Option) Option {
	return func(o *options) { o.webhookOpts = append(o.webhookOpts, opts...) }
}

// WithDocumentStore replaces the in-memory document store.
func WithDocumentStore(s document.Store) Option {
	return func(o *options) { o.documentStore = s }
}

// New registers plugins and builds the handler.
func New(ctx context.Context, config Config, plugins []*plugin.Plugin, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	translator := admin.NewTranslator(language.English)
	var types []document.ContentType
	adminPlugins := make([]admin.Plugin, 0, len(plugins))
	for _, p := range plugins {
		if err := p.AddTranslations(translator); err != nil {
			return nil, err
		}
		types = append(types, p.ContentTypes()...)
		adminPlugins = append(adminPlugins, p)
	}

	reg, err := admin.NewRegistry(admin.WithLogger(logger)).Initialize(ctx, adminPlugins...)
	if err != nil {
		return nil, err
	}

	runner := webhook.NewRunner(append([]webhook.Option{webhook.WithLogger(logger)}, o.webhookOpts...)...)
	for _, w := range config.Webhooks {
		if _, err := runner.Register(w); err != nil {
			return nil, fmt.Errorf("registering webhook %s: %w", w.Name, err)
		}
	}

	docOpts := []document.Option{document.WithEmitter(runner), document.WithLogger(logger)}
	if o.documentStore != nil {
		docOpts = append(docOpts, document.WithStore(o.documentStore))
	}
	docs, err := document.NewService(types, docOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating document service: %w", err)
	}

	s := &Server{
		config:     config,
		logger:     logger,
		registry:   reg,
		translator: translator,
		documents:  docs,
		webhooks:   runner,
	}

	router := admin.NewRouter(reg, s.routes()...)
	h, err := router.Handler(admin.RouterOptions{
		Basename:   config.Basename,
		Translator: translator,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	s.handler = s.loggingMiddleware(h)
	return s, nil
}

// Handler returns the composed handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Registry returns the sealed link registry.
func (s *Server) Registry() *admin.Registry { return s.registry }

// Documents returns the document service behind the content API.
func (s *Server) Documents() *document.Service { return s.documents }

// Webhooks returns the webhook runner.
func (s *Server) Webhooks() *webhook.Runner { return s.webhooks }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	s.logger.Info("admin server listening", zap.String("addr", listener.Addr().String()), zap.String("base", s.config.Basename))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}
	return s.Shutdown(context.Background()) //nolint:contextcheck // parent context cancelled
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down admin server")
	return s.httpServer.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
