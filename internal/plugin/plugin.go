package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/quill-cms/quill/internal/admin"
	"github.com/quill-cms/quill/internal/branding"
	"github.com/quill-cms/quill/internal/document"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
)

// ErrIncompatible is returned when a plugin requires another framework
// version.
var ErrIncompatible = errors.New("plugin is not compatible with this framework version")

// InvalidManifestError carries the schema violations of a manifest.
type InvalidManifestError struct {
	Dir    string
	Issues []ValidationIssue
}

func (e *InvalidManifestError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		msgs = append(msgs, i.String())
	}
	return fmt.Sprintf("invalid manifest in %s: %s", e.Dir, strings.Join(msgs, "; "))
}

// Plugin is a loaded plugin directory. It implements admin.Plugin.
type Plugin struct {
	Dir      string
	Manifest *Manifest
}

var _ admin.Plugin = (*Plugin)(nil)

// Load reads, validates and parses the plugin in dir, checking its
// requires constraint against the framework version.
func Load(dir string) (*Plugin, error) {
	return LoadFor(dir, branding.FrameworkVersion())
}

// LoadFor is Load against an explicit framework version.
func LoadFor(dir, frameworkVersion string) (*Plugin, error) {
	data, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest in %s: %w", dir, err)
	}
	if !result.Valid {
		return nil, &InvalidManifestError{Dir: dir, Issues: result.Issues}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest in %s: %w", dir, err)
	}

	if err := CheckRequires(m.Requires, frameworkVersion); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", m.Name, err)
	}
	for _, v := range m.views() {
		if !filepath.IsLocal(v) {
			return nil, fmt.Errorf("plugin %s: view %q must be a relative path inside the plugin", m.Name, v)
		}
	}
	for _, ct := range m.ContentTypes {
		if err := ct.Validate(); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", m.Name, err)
		}
	}
	for locale := range m.Translations {
		if _, err := language.Parse(locale); err != nil {
			return nil, fmt.Errorf("plugin %s: translations locale %q: %w", m.Name, locale, err)
		}
	}

	return &Plugin{Dir: dir, Manifest: &m}, nil
}

// LoadAll loads every directory, stopping at the first failure.
func LoadAll(dirs ...string) ([]*Plugin, error) {
	out := make([]*Plugin, 0, len(dirs))
	for _, d := range dirs {
		p, err := Load(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckRequires reports whether version satisfies the constraint. An
// empty constraint accepts every version.
func CheckRequires(constraint, version string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("parsing requires %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("parsing framework version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: requires %s, have %s", ErrIncompatible, constraint, version)
	}
	return nil
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.Manifest.Name }

// Register adds the plugin's menu links and settings to reg.
func (p *Plugin) Register(_ context.Context, reg *admin.Registry) error {
	for _, l := range p.Manifest.Menu {
		err := reg.AddMenuLink(admin.MenuLink{
			To:                 l.To,
			Icon:               l.Icon,
			IntlLabel:          intlLabel(l.Label),
			Permissions:        permissions(l.Permissions),
			NotificationsCount: l.NotificationsCount,
			Exact:              l.Exact,
			LockIcon:           l.LockIcon,
			Loader:             p.viewLoader(l.View),
		})
		if err != nil {
			return fmt.Errorf("adding menu link %s: %w", l.To, err)
		}
	}

	for _, entry := range p.Manifest.Settings {
		links := make([]admin.SettingsLink, 0, len(entry.Links))
		for _, l := range entry.Links {
			links = append(links, admin.SettingsLink{
				ID:          l.ID,
				To:          l.To,
				IntlLabel:   intlLabel(l.Label),
				Permissions: permissions(l.Permissions),
				Exact:       l.Exact,
				LockIcon:    l.LockIcon,
				Loader:      p.viewLoader(l.View),
			})
		}

		if entry.Section != nil {
			section := admin.SettingsSection{ID: entry.Section.ID, IntlLabel: intlLabel(entry.Section.Label)}
			if err := reg.AddSettingsSection(section, links...); err != nil {
				return fmt.Errorf("adding settings section %s: %w", entry.Section.ID, err)
			}
			continue
		}
		if err := reg.AddSettingsLinks(entry.SectionID, links...); err != nil {
			return fmt.Errorf("adding settings links to %s: %w", entry.SectionID, err)
		}
	}
	return nil
}

// ContentTypes returns the content types the plugin declares.
func (p *Plugin) ContentTypes() []document.ContentType {
	return append([]document.ContentType(nil), p.Manifest.ContentTypes...)
}

// AddTranslations loads the plugin's messages into t.
func (p *Plugin) AddTranslations(t *admin.Translator) error {
	for locale, msgs := range p.Manifest.Translations {
		if err := t.Add(language.Make(locale), msgs); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

func intlLabel(l Label) admin.IntlLabel {
	return admin.IntlLabel{ID: l.ID, DefaultMessage: l.DefaultMessage, Values: l.Values}
}

func permissions(in []Permission) []admin.Permission {
	out := make([]admin.Permission, 0, len(in))
	for _, p := range in {
		out = append(out, admin.Permission{
			Action:     p.Action,
			Subject:    p.Subject,
			Properties: p.Properties,
			Conditions: p.Conditions,
		})
	}
	return out
}
