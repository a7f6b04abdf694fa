package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/quill-cms/quill/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventHeader carries the event name on every delivery.
const EventHeader = "X-Quill-Event"

const (
	defaultAttempts    = 3
	defaultDelay       = 500 * time.Millisecond
	defaultConcurrency = 8
)

// Info describes the entry an event is about.
type Info struct {
	Model string
	UID   string
	Entry any
}

// Payload is the JSON body posted to webhooks.
type Payload struct {
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"createdAt"`
	Model     string    `json:"model"`
	UID       string    `json:"uid"`
	Entry     any       `json:"entry"`
}

// DeliveryResult reports the outcome of one webhook delivery.
type DeliveryResult struct {
	WebhookID  string
	StatusCode int
	Attempts   uint
	Err        error
}

// Emitter delivers events. It is implemented by *Runner.
type Emitter interface {
	Emit(ctx context.Context, event string, info Info) ([]DeliveryResult, error)
}

// Runner stores webhooks and delivers events to them.
type Runner struct {
	registry

	client      *http.Client
	attempts    uint
	delay       time.Duration
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithHTTPClient sets the client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithAttempts sets the number of delivery attempts per webhook.
func WithAttempts(n uint) Option {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithDelay sets the base delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithConcurrency bounds the number of deliveries in flight per event.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = logging.OrNop(l) }
}

// WithClock overrides the time source for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner with no webhooks.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		client:      &http.Client{Timeout: 10 * time.Second},
		attempts:    defaultAttempts,
		delay:       defaultDelay,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores w, assigning an id when it has none.
func (r *Runner) Register(w Webhook) (Webhook, error) {
	stored, err := r.register(w)
	if err != nil {
		return Webhook{}, fmt.Errorf("registering webhook %s: %w", w.Name, err)
	}
	r.logger.Debug("webhook registered", zap.String("id", stored.ID), zap.String("url", stored.URL))
	return stored, nil
}

// Remove deletes the webhook with the given id.
func (r *Runner) Remove(id string) error { return r.remove(id) }

// List returns the registered webhooks in registration order.
func (r *Runner) List() []Webhook { return r.list() }

// Emit posts event to every subscribed webhook. The returned error
// summarises failed deliveries; the results carry the detail.
func (r *Runner) Emit(ctx context.Context, event string, info Info) ([]DeliveryResult, error) {
	var targets []Webhook
	for _, w := range r.list() {
		if w.Subscribed(event) {
			targets = append(targets, w)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(Payload{
		Event:     event,
		CreatedAt: r.now().UTC(),
		Model:     info.Model,
		UID:       info.UID,
		Entry:     info.Entry,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}

	results := make([]DeliveryResult, len(targets))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, w := range targets {
		g.Go(func() error {
			results[i] = r.deliver(ctx, w, event, body)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d %s deliveries failed", failed, len(results), event)
	}
	return results, nil
}

func (r *Runner) deliver(ctx context.Context, w Webhook, event string, body []byte) DeliveryResult {
	res := DeliveryResult{WebhookID: w.ID}

	err := retry.Do(func() error {
		res.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(EventHeader, event)
		for k, v := range w.Headers {
			req.Header.Set(k, v)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("posting to %s: %w", w.URL, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		res.StatusCode = resp.StatusCode
		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("webhook %s returned status %d", w.ID, resp.StatusCode)
		default:
			return retry.Unrecoverable(fmt.Errorf("webhook %s returned status %d", w.ID, resp.StatusCode))
		}
	},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying webhook delivery",
				zap.String("webhook", w.ID), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		r.logger.Warn("webhook delivery failed",
			zap.String("webhook", w.ID), zap.String("event", event), zap.Error(err))
		res.Err = err
	}
	return res
}
