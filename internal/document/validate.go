package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"slices"
	"sort"
	"strings"
	"time"
)

// FieldError is a validation failure for one attribute.
type FieldError struct {
	Path    string
	Message string
}

// ValidationError lists every invalid attribute of a document.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Path+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var errWrongType = errors.New("has the wrong type")

// validateData checks data against ct and returns normalized values. When
// partial is false, required attributes must be present.
func validateData(ct ContentType, data map[string]any, partial bool) (map[string]any, error) {
	out := make(map[string]any, len(data))
	var fieldErrs []FieldError

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		attr, ok := ct.Attributes[k]
		if !ok {
			fieldErrs = append(fieldErrs, FieldError{Path: k, Message: "unknown attribute"})
			continue
		}
		v := data[k]
		if v == nil {
			if attr.Required {
				fieldErrs = append(fieldErrs, FieldError{Path: k, Message: "is required"})
				continue
			}
			out[k] = nil
			continue
		}
		norm, err := checkValue(attr, v)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Path: k, Message: err.Error()})
			continue
		}
		out[k] = norm
	}

	if !partial {
		names := make([]string, 0, len(ct.Attributes))
		for name := range ct.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			attr := ct.Attributes[name]
			if _, ok := out[name]; ok {
				continue
			}
			if attr.Default != nil {
				out[name], _ = checkValue(attr, attr.Default)
				continue
			}
			if attr.Required && !slices.ContainsFunc(fieldErrs, func(fe FieldError) bool { return fe.Path == name }) {
				fieldErrs = append(fieldErrs, FieldError{Path: name, Message: "is required"})
			}
		}
	}

	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}
	return out, nil
}

// checkValue validates v for attr and returns it in canonical form.
func checkValue(attr Attribute, v any) (any, error) {
	switch attr.Type {
	case TypeString, TypeText, TypeRichText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected a string", errWrongType)
		}
		return s, nil

	case TypeEmail:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected an email string", errWrongType)
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return nil, fmt.Errorf("%q is not a valid email", s)
		}
		return s, nil

	case TypeInteger:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: expected an integer", errWrongType)
		}
		return int64(f), nil

	case TypeDecimal:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected a number", errWrongType)
		}
		return f, nil

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected a boolean", errWrongType)
		}
		return b, nil

	case TypeDateTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, fmt.Errorf("%q is not an RFC 3339 date-time", t)
			}
			return parsed.UTC(), nil
		default:
			return nil, fmt.Errorf("%w: expected a date-time", errWrongType)
		}

	case TypeJSON:
		if _, err := json.Marshal(v); err != nil {
			return nil, fmt.Errorf("value is not JSON serialisable: %w", err)
		}
		return v, nil

	case TypeEnumeration:
		s, ok := v.(string)
		if !ok || !slices.Contains(attr.Enum, s) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(attr.Enum, ", "))
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %q", attr.Type)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
