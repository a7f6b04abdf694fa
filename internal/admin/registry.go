package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/quill-cms/quill/internal/logging"
	"go.uber.org/zap"
)

// GlobalSectionID is the settings section every registry starts with.
const GlobalSectionID = "global"

// settingsRoot is the path segment all settings links live under.
const settingsRoot = "settings"

// Registry stores menu links and settings sections in registration order.
type Registry struct {
	logger   *zap.Logger
	menu     []*MenuLink
	sections map[string]*SettingsSection
	order    []string
	sealed   bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for normalization warnings.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logging.OrNop(l) }
}

// NewRegistry returns an empty registry holding only the global section.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:   zap.NewNop(),
		sections: make(map[string]*SettingsSection),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.putSection(&SettingsSection{
		ID: GlobalSectionID,
		IntlLabel: IntlLabel{
			ID:             "Settings.global",
			DefaultMessage: "Global Settings",
		},
	})
	return r
}

// AddMenuLink validates link and appends it to the menu. A leading "/" in
// To is stripped.
func (r *Registry) AddMenuLink(link MenuLink) error {
	if r.sealed {
		return ErrRegistrySealed
	}

	label := link.IntlLabel.DefaultMessage
	if err := firstErr(
		invariant(link.To != "", label, "link.to should be defined"),
		invariant(link.IntlLabel.ID != "" && label != "", label, "link.intlLabel.id & link.intlLabel.defaultMessage should be defined"),
		invariant(link.Loader != nil, label, "link.Loader must be set to a ViewLoader"),
	); err != nil {
		return err
	}

	if strings.HasPrefix(link.To, "/") {
		r.logger.Warn("menu link path is absolute, it should be relative to the root of the application; it has been corrected",
			zap.String("label", label), zap.String("to", link.To))
		link.To = link.To[1:]
	}

	link.Permissions = clonePermissions(link.Permissions)
	link.view = newLazyView(link.Loader)
	r.menu = append(r.menu, &link)
	return nil
}

// AddSettingsSection creates a new section and registers links in it, both
// those carried in section.Links and those passed separately. Nothing is
// registered if any link is invalid.
func (r *Registry) AddSettingsSection(section SettingsSection, links ...SettingsLink) error {
	if r.sealed {
		return ErrRegistrySealed
	}

	if err := firstErr(
		invariant(section.ID != "", "", "section.id should be defined"),
		invariant(section.IntlLabel.ID != "" && section.IntlLabel.DefaultMessage != "", "", "section.intlLabel should be defined"),
	); err != nil {
		return err
	}
	if _, exists := r.sections[section.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, section.ID)
	}

	all := make([]SettingsLink, 0, len(section.Links)+len(links))
	for _, l := range section.Links {
		if l != nil {
			all = append(all, *l)
		}
	}
	all = append(all, links...)

	prepared, err := r.prepareSettingsLinks(all)
	if err != nil {
		return err
	}

	r.putSection(&SettingsSection{
		ID:        section.ID,
		IntlLabel: section.IntlLabel,
		Links:     prepared,
	})
	return nil
}

// AddSettingsLinks appends links to an existing section.
func (r *Registry) AddSettingsLinks(sectionID string, links ...SettingsLink) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if sectionID == "" || len(links) == 0 {
		return ErrMissingLinks
	}

	section, ok := r.sections[sectionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, sectionID)
	}

	prepared, err := r.prepareSettingsLinks(links)
	if err != nil {
		return err
	}
	section.Links = append(section.Links, prepared...)
	return nil
}

func (r *Registry) prepareSettingsLinks(links []SettingsLink) ([]*SettingsLink, error) {
	out := make([]*SettingsLink, 0, len(links))
	for _, link := range links {
		p, err := r.prepareSettingsLink(link)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Registry) prepareSettingsLink(link SettingsLink) (*SettingsLink, error) {
	label := link.IntlLabel.DefaultMessage
	if err := firstErr(
		invariant(link.ID != "", label, "link.id should be defined"),
		invariant(link.IntlLabel.ID != "" && label != "", label, "link.intlLabel.id & link.intlLabel.defaultMessage should be defined"),
		invariant(link.To != "", label, "link.to should be defined"),
		invariant(link.Loader != nil, label, "link.Loader must be set to a ViewLoader"),
	); err != nil {
		return nil, err
	}

	if strings.HasPrefix(link.To, "/") {
		r.logger.Warn("settings link path is absolute, it should be relative to /settings; it has been corrected",
			zap.String("label", label), zap.String("to", link.To))
		link.To = link.To[1:]
	}

	if parts := strings.Split(link.To, "/"); parts[0] == settingsRoot {
		r.logger.Warn("settings link path starts with settings, it should be relative to it; it has been corrected",
			zap.String("label", label), zap.String("to", link.To))
		link.To = strings.Join(parts[1:], "/")
	}

	link.Permissions = clonePermissions(link.Permissions)
	link.view = newLazyView(link.Loader)
	return &link, nil
}

func (r *Registry) putSection(s *SettingsSection) {
	r.sections[s.ID] = s
	r.order = append(r.order, s.ID)
}

// Seal ends the registration phase.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed }

// Menu returns the menu links in registration order.
func (r *Registry) Menu() []*MenuLink {
	out := make([]*MenuLink, len(r.menu))
	copy(out, r.menu)
	return out
}

// Sections returns the settings sections in registration order.
func (r *Registry) Sections() []*SettingsSection {
	out := make([]*SettingsSection, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sections[id])
	}
	return out
}

// Section returns the section with the given id.
func (r *Registry) Section(id string) (*SettingsSection, bool) {
	s, ok := r.sections[id]
	return s, ok
}

// MatchMenuLink finds the menu link serving path (relative, no leading
// slash). Exact links match only their own path; others also match nested
// paths. The longest match wins.
func (r *Registry) MatchMenuLink(path string) (*MenuLink, bool) {
	var best *MenuLink
	for _, l := range r.menu {
		if matches(l.To, path, l.Exact) && (best == nil || len(l.To) > len(best.To)) {
			best = l
		}
	}
	return best, best != nil
}

// MatchSettingsLink finds the settings link serving path, relative to the
// settings root.
func (r *Registry) MatchSettingsLink(path string) (*SettingsLink, bool) {
	var best *SettingsLink
	for _, id := range r.order {
		for _, l := range r.sections[id].Links {
			if matches(l.To, path, l.Exact) && (best == nil || len(l.To) > len(best.To)) {
				best = l
			}
		}
	}
	return best, best != nil
}

func matches(to, path string, exact bool) bool {
	path = strings.Trim(path, "/")
	to = strings.Trim(to, "/")
	if path == to {
		return true
	}
	return !exact && to != "" && strings.HasPrefix(path, to+"/")
}

// Plugin contributes links during the registration phase.
type Plugin interface {
	Name() string
	Register(ctx context.Context, r *Registry) error
}

// Initialize runs every plugin's registration against a fresh registry,
// seals it and returns it.
func Initialize(ctx context.Context, plugins ...Plugin) (*Registry, error) {
	return NewRegistry().Initialize(ctx, plugins...)
}

// Initialize runs every plugin's registration against r in order, then
// seals r. Plugins registered after a failure are not run.
func (r *Registry) Initialize(ctx context.Context, plugins ...Plugin) (*Registry, error) {
	if r.sealed {
		return nil, ErrRegistrySealed
	}
	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.Register(ctx, r); err != nil {
			return nil, fmt.Errorf("registering plugin %s: %w", p.Name(), err)
		}
		r.logger.Debug("plugin registered", zap.String("plugin", p.Name()))
	}
	r.Seal()
	return r, nil
}

func clonePermissions(in []Permission) []Permission {
	if in == nil {
		return []Permission{}
	}
	out := make([]Permission, len(in))
	copy(out, in)
	return out
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
