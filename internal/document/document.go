package document

import (
	"encoding/json"
	"maps"
	"time"
)

// DefaultLocale is used when no locale is requested.
const DefaultLocale = "en"

// Status selects the draft or published version of documents.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Document is one stored version of a document: a single locale in either
// draft or published state. Versions of the same document share DocumentID.
type Document struct {
	ID          int64
	DocumentID  string
	Locale      string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Data        map[string]any
}

// Published reports whether d is a published version.
func (d Document) Published() bool { return d.PublishedAt != nil }

// Get returns a system field or attribute by name.
func (d Document) Get(field string) any {
	switch field {
	case "id":
		return d.ID
	case "documentId":
		return d.DocumentID
	case "locale":
		return d.Locale
	case "publishedAt":
		if d.PublishedAt == nil {
			return nil
		}
		return *d.PublishedAt
	case "createdAt":
		return d.CreatedAt
	case "updatedAt":
		return d.UpdatedAt
	}
	return d.Data[field]
}

// Fields flattens the system fields and attributes into one map.
func (d Document) Fields() map[string]any {
	out := make(map[string]any, len(d.Data)+6)
	maps.Copy(out, d.Data)
	out["id"] = d.ID
	out["documentId"] = d.DocumentID
	out["locale"] = d.Locale
	out["createdAt"] = d.CreatedAt
	out["updatedAt"] = d.UpdatedAt
	if d.PublishedAt != nil {
		out["publishedAt"] = *d.PublishedAt
	} else {
		out["publishedAt"] = nil
	}
	return out
}

// MarshalJSON encodes the flattened fields.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

func (d Document) clone() Document {
	c := d
	c.Data = maps.Clone(d.Data)
	if d.PublishedAt != nil {
		t := *d.PublishedAt
		c.PublishedAt = &t
	}
	return c
}
