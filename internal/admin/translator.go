package admin

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator resolves IntlLabels against a message catalog.
type Translator struct {
	mu        sync.RWMutex
	builder   *catalog.Builder
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
}

// NewTranslator returns a translator whose catalog falls back to the given
// language.
func NewTranslator(fallback language.Tag) *Translator {
	t := &Translator{
		builder:   catalog.NewBuilder(catalog.Fallback(fallback)),
		fallback:  fallback,
		supported: []language.Tag{fallback},
	}
	t.matcher = language.NewMatcher(t.supported)
	return t
}

// Fallback returns the language used when a requested locale is unknown.
func (t *Translator) Fallback() language.Tag { return t.fallback }

// Add registers translations for tag, keyed by message id.
func (t *Translator) Add(tag language.Tag, messages map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, msg := range messages {
		if err := t.builder.SetString(tag, id, escapePercent(msg)); err != nil {
			return fmt.Errorf("adding message %s for %s: %w", id, tag, err)
		}
	}
	for _, known := range t.supported {
		if known == tag {
			return nil
		}
	}
	t.supported = append(t.supported, tag)
	t.matcher = language.NewMatcher(t.supported)
	return nil
}

// Label returns the catalog message for l.ID in tag, or l.DefaultMessage,
// with {name} placeholders replaced from l.Values.
func (t *Translator) Label(tag language.Tag, l IntlLabel) string {
	t.mu.RLock()
	_, idx, _ := t.matcher.Match(tag)
	s := l.DefaultMessage
	if idx > 0 || t.hasLanguage(t.fallback) {
		p := message.NewPrinter(t.supported[idx], message.Catalog(t.builder))
		s = p.Sprintf(message.Key(l.ID, escapePercent(l.DefaultMessage)))
	}
	t.mu.RUnlock()

	if len(l.Values) == 0 {
		return s
	}
	pairs := make([]string, 0, len(l.Values)*2)
	for k, v := range l.Values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// ParseLocale parses a locale such as "fr" or "pt-BR", returning the
// fallback language when s is empty or malformed.
func (t *Translator) ParseLocale(s string) language.Tag {
	if s == "" {
		return t.fallback
	}
	tag, err := language.Parse(s)
	if err != nil {
		return t.fallback
	}
	return tag
}

func (t *Translator) hasLanguage(tag language.Tag) bool {
	for _, l := range t.builder.Languages() {
		if l == tag {
			return true
		}
	}
	return false
}

func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
