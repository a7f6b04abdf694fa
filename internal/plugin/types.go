package plugin

import "github.com/quill-cms/quill/internal/document"

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// Manifest is the parsed plugin.yaml.
type Manifest struct {
	Name         string                 `yaml:"name"`
	Version      string                 `yaml:"version"`
	Description  string                 `yaml:"description,omitempty"`
	Requires     string                 `yaml:"requires,omitempty"`
	Menu         []MenuLink             `yaml:"menu,omitempty"`
	Settings     []SettingsEntry        `yaml:"settings,omitempty"`
	ContentTypes []document.ContentType `yaml:"contentTypes,omitempty"`
	// Translations maps a locale to message id -> message.
	Translations map[string]map[string]string `yaml:"translations,omitempty"`
}

// Label mirrors admin.IntlLabel in the manifest.
type Label struct {
	ID             string            `yaml:"id"`
	DefaultMessage string            `yaml:"defaultMessage"`
	Values         map[string]string `yaml:"values,omitempty"`
}

// Permission mirrors admin.Permission in the manifest.
type Permission struct {
	Action     string         `yaml:"action"`
	Subject    string         `yaml:"subject,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
	Conditions []string       `yaml:"conditions,omitempty"`
}

// MenuLink declares a top-level admin link served by View.
type MenuLink struct {
	To                 string       `yaml:"to"`
	Icon               string       `yaml:"icon,omitempty"`
	Label              Label        `yaml:"label"`
	Permissions        []Permission `yaml:"permissions,omitempty"`
	NotificationsCount int          `yaml:"notificationsCount,omitempty"`
	Exact              bool         `yaml:"exact,omitempty"`
	LockIcon           bool         `yaml:"lockIcon,omitempty"`
	View               string       `yaml:"view"`
}

// SettingsLink declares a settings page served by View.
type SettingsLink struct {
	ID          string       `yaml:"id"`
	To          string       `yaml:"to"`
	Label       Label        `yaml:"label"`
	Permissions []Permission `yaml:"permissions,omitempty"`
	Exact       bool         `yaml:"exact,omitempty"`
	LockIcon    bool         `yaml:"lockIcon,omitempty"`
	View        string       `yaml:"view"`
}

// SettingsEntry either creates Section or extends the section SectionID.
type SettingsEntry struct {
	Section   *Section       `yaml:"section,omitempty"`
	SectionID string         `yaml:"sectionId,omitempty"`
	Links     []SettingsLink `yaml:"links"`
}

// Section declares a new settings section.
type Section struct {
	ID    string `yaml:"id"`
	Label Label  `yaml:"label"`
}

// views lists every view path referenced by the manifest.
func (m *Manifest) views() []string {
	var out []string
	for _, l := range m.Menu {
		out = append(out, l.View)
	}
	for _, s := range m.Settings {
		for _, l := range s.Links {
			out = append(out, l.View)
		}
	}
	return out
}
