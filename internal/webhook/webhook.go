package webhook

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Content lifecycle events.
const (
	EventEntryCreate    = "entry.create"
	EventEntryUpdate    = "entry.update"
	EventEntryDelete    = "entry.delete"
	EventEntryPublish   = "entry.publish"
	EventEntryUnpublish = "entry.unpublish"
)

// Events lists every event a webhook can subscribe to.
var Events = []string{
	EventEntryCreate,
	EventEntryUpdate,
	EventEntryDelete,
	EventEntryPublish,
	EventEntryUnpublish,
}

var (
	// ErrNotFound is returned when no webhook has the given id.
	ErrNotFound = errors.New("webhook not found")
	// ErrDuplicateID is returned when registering an id twice.
	ErrDuplicateID = errors.New("webhook id already registered")
	// ErrInvalid wraps every validation failure of Register.
	ErrInvalid = errors.New("invalid webhook")
)

// Webhook is a subscription of an HTTP endpoint to a set of events.
type Webhook struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Events  []string          `json:"events" yaml:"events"`
	Enabled bool              `json:"isEnabled" yaml:"enabled"`
}

// Subscribed reports whether w is enabled and listens to event.
func (w Webhook) Subscribed(event string) bool {
	return w.Enabled && slices.Contains(w.Events, event)
}

func (w Webhook) validate() error {
	if w.Name == "" {
		return fmt.Errorf("webhook name is required")
	}
	u, err := url.Parse(w.URL)
	if err != nil {
		return fmt.Errorf("parsing webhook url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook url %q must be an absolute http(s) url", w.URL)
	}
	for _, e := range w.Events {
		if !slices.Contains(Events, e) {
			return fmt.Errorf("unknown webhook event %q", e)
		}
	}
	return nil
}

// registry holds webhooks in registration order.
type registry struct {
	mu    sync.RWMutex
	hooks map[string]Webhook
	order []string
}

func (r *registry) register(w Webhook) (Webhook, error) {
	if err := w.validate(); err != nil {
		return Webhook{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Events = slices.Clone(w.Events)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[string]Webhook)
	}
	if _, ok := r.hooks[w.ID]; ok {
		return Webhook{}, fmt.Errorf("%w: %s", ErrDuplicateID, w.ID)
	}
	r.hooks[w.ID] = w
	r.order = append(r.order, w.ID)
	return w, nil
}

func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.hooks, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *registry) list() []Webhook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Webhook, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.hooks[id])
	}
	return out
}
