package document

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Kind distinguishes collections from single entries.
type Kind string

const (
	CollectionType Kind = "collectionType"
	SingleType     Kind = "singleType"
)

// AttributeType is the type of a content type field.
type AttributeType string

const (
	TypeString      AttributeType = "string"
	TypeText        AttributeType = "text"
	TypeRichText    AttributeType = "richtext"
	TypeEmail       AttributeType = "email"
	TypeInteger     AttributeType = "integer"
	TypeDecimal     AttributeType = "decimal"
	TypeBoolean     AttributeType = "boolean"
	TypeDateTime    AttributeType = "datetime"
	TypeJSON        AttributeType = "json"
	TypeEnumeration AttributeType = "enumeration"
)

// AttributeTypes lists the supported attribute types.
var AttributeTypes = []AttributeType{
	TypeString, TypeText, TypeRichText, TypeEmail, TypeInteger,
	TypeDecimal, TypeBoolean, TypeDateTime, TypeJSON, TypeEnumeration,
}

// Attribute describes one field of a content type.
type Attribute struct {
	Type     AttributeType `yaml:"type" json:"type"`
	Required bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Enum     []string      `yaml:"enum,omitempty" json:"enum,omitempty"`
	Default  any           `yaml:"default,omitempty" json:"default,omitempty"`
}

// ContentType is the schema of a family of documents.
type ContentType struct {
	UID             string               `yaml:"uid" json:"uid"`
	Kind            Kind                 `yaml:"kind" json:"kind"`
	DisplayName     string               `yaml:"displayName" json:"displayName"`
	DraftAndPublish bool                 `yaml:"draftAndPublish" json:"draftAndPublish"`
	Localized       bool                 `yaml:"localized" json:"localized"`
	Attributes      map[string]Attribute `yaml:"attributes" json:"attributes"`
}

var uidPattern = regexp.MustCompile(`^(api|plugin|admin)::[a-z0-9-]+\.[a-z0-9-]+$`)

// reserved names are the system fields every document carries.
var reserved = []string{"id", "documentId", "locale", "publishedAt", "createdAt", "updatedAt"}

// ModelName is the singular model name, the part of the uid after the dot.
func (ct ContentType) ModelName() string {
	_, name, _ := strings.Cut(ct.UID, ".")
	return name
}

// Validate checks the content type definition.
func (ct ContentType) Validate() error {
	if !uidPattern.MatchString(ct.UID) {
		return fmt.Errorf("content type uid %q must look like api::name.name", ct.UID)
	}
	switch ct.Kind {
	case CollectionType, SingleType:
	case "":
		return fmt.Errorf("content type %s: kind is required", ct.UID)
	default:
		return fmt.Errorf("content type %s: unknown kind %q", ct.UID, ct.Kind)
	}
	for name, attr := range ct.Attributes {
		if slices.Contains(reserved, name) {
			return fmt.Errorf("content type %s: attribute name %q is reserved", ct.UID, name)
		}
		if !slices.Contains(AttributeTypes, attr.Type) {
			return fmt.Errorf("content type %s: attribute %s has unknown type %q", ct.UID, name, attr.Type)
		}
		if attr.Type == TypeEnumeration && len(attr.Enum) == 0 {
			return fmt.Errorf("content type %s: enumeration %s needs at least one value", ct.UID, name)
		}
		if attr.Default != nil {
			if _, err := checkValue(attr, attr.Default); err != nil {
				return fmt.Errorf("content type %s: default for %s: %w", ct.UID, name, err)
			}
		}
	}
	return nil
}
