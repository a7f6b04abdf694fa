// Package plugin loads plugin directories. A plugin directory holds a
// plugin.yaml manifest declaring admin links, settings sections, content
// types and translations, plus the view files its links point at.
package plugin
