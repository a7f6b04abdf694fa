package admin

import (
	"context"
	"errors"
)

// IntlLabel is a translatable label. DefaultMessage is shown when the catalog
// has no entry for ID; Values fill {placeholder}s.
type IntlLabel struct {
	ID             string            `json:"id"`
	DefaultMessage string            `json:"defaultMessage"`
	Values         map[string]string `json:"values,omitempty"`
}

// Permission gates access to a link.
type Permission struct {
	Action     string         `json:"action"`
	Subject    string         `json:"subject,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Conditions []string       `json:"conditions,omitempty"`
}

// MenuLink is a top-level navigation entry.
type MenuLink struct {
	To                 string       `json:"to"`
	Icon               string       `json:"icon,omitempty"`
	IntlLabel          IntlLabel    `json:"intlLabel"`
	Permissions        []Permission `json:"permissions"`
	NotificationsCount int          `json:"notificationsCount,omitempty"`
	Exact              bool         `json:"exact,omitempty"`
	LockIcon           bool         `json:"lockIcon,omitempty"`
	Loader             ViewLoader   `json:"-"`

	view *lazyView
}

// ResolveView loads the link's view, invoking the loader only once it succeeds.
func (l *MenuLink) ResolveView(ctx context.Context) (*View, error) {
	if l.view == nil {
		return nil, errUnregistered
	}
	return l.view.resolve(ctx)
}

// ResolveViewAsync is ResolveView delivered on a channel.
func (l *MenuLink) ResolveViewAsync(ctx context.Context) <-chan ViewResult {
	if l.view == nil {
		return failed(errUnregistered)
	}
	return l.view.resolveAsync(ctx)
}

// SettingsLink is an entry inside a settings section. Its To is relative to
// the settings root.
type SettingsLink struct {
	ID          string       `json:"id"`
	To          string       `json:"to"`
	IntlLabel   IntlLabel    `json:"intlLabel"`
	Permissions []Permission `json:"permissions"`
	Exact       bool         `json:"exact,omitempty"`
	LockIcon    bool         `json:"lockIcon,omitempty"`
	Loader      ViewLoader   `json:"-"`

	view *lazyView
}

// ResolveView loads the link's view, invoking the loader only once it succeeds.
func (l *SettingsLink) ResolveView(ctx context.Context) (*View, error) {
	if l.view == nil {
		return nil, errUnregistered
	}
	return l.view.resolve(ctx)
}

// ResolveViewAsync is ResolveView delivered on a channel.
func (l *SettingsLink) ResolveViewAsync(ctx context.Context) <-chan ViewResult {
	if l.view == nil {
		return failed(errUnregistered)
	}
	return l.view.resolveAsync(ctx)
}

// SettingsSection groups settings links under a label.
type SettingsSection struct {
	ID        string          `json:"id"`
	IntlLabel IntlLabel       `json:"intlLabel"`
	Links     []*SettingsLink `json:"links"`
}

var errUnregistered = errors.New("link was not obtained from a registry")

func failed(err error) <-chan ViewResult {
	ch := make(chan ViewResult, 1)
	ch <- ViewResult{Err: err}
	close(ch)
	return ch
}
