package document

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Params are the options of collection operations. Fields irrelevant to an
// operation are ignored.
type Params struct {
	// Locale selects a locale; "*" selects all of them on reads and deletes.
	Locale string
	// Status selects drafts (default) or published versions.
	Status Status
	// Data holds attribute values for Create and Update.
	Data map[string]any
	// Filters match fields by equality.
	Filters map[string]any
	// Sort lists fields, each optionally suffixed with ":asc" or ":desc".
	Sort  []string
	Start int
	Limit int
}

// AllLocales selects every locale.
const AllLocales = "*"

// selectLocale returns the locale reads and deletes match against. Types
// that are not localized only hold DefaultLocale rows.
func selectLocale(ct ContentType, p Params) string {
	switch {
	case p.Locale == AllLocales:
		return AllLocales
	case p.Locale == "" || !ct.Localized:
		return DefaultLocale
	}
	return p.Locale
}

func (p Params) status() Status {
	if p.Status == "" {
		return StatusDraft
	}
	return p.Status
}

func (p Params) validate() error {
	switch p.Status {
	case "", StatusDraft, StatusPublished:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidParams, p.Status)
	}
	if p.Start < 0 || p.Limit < 0 {
		return fmt.Errorf("%w: pagination must not be negative", ErrInvalidParams)
	}
	for _, s := range p.Sort {
		if _, dir, ok := strings.Cut(s, ":"); ok && dir != "asc" && dir != "desc" {
			return fmt.Errorf("%w: sort direction in %q must be asc or desc", ErrInvalidParams, s)
		}
	}
	return nil
}

// matcher builds the row predicate for p against ct.
func (p Params) matcher(ct ContentType) func(Document) bool {
	locale := selectLocale(ct, p)
	status := p.status()
	return func(d Document) bool {
		if locale != AllLocales && d.Locale != locale {
			return false
		}
		if ct.DraftAndPublish && d.Published() != (status == StatusPublished) {
			return false
		}
		for field, want := range p.Filters {
			if compareValues(d.Get(field), want) != 0 {
				return false
			}
		}
		return true
	}
}

func (p Params) apply(rows []Document) []Document {
	if len(p.Sort) > 0 {
		slices.SortStableFunc(rows, func(a, b Document) int {
			for _, s := range p.Sort {
				field, dir, _ := strings.Cut(s, ":")
				c := compareValues(a.Get(field), b.Get(field))
				if dir == "desc" {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	if p.Start > 0 {
		if p.Start >= len(rows) {
			return nil
		}
		rows = rows[p.Start:]
	}
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows
}

// compareValues orders nil first, then numbers, strings, booleans and times
// by value; mismatched kinds fall back to their printed form.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
