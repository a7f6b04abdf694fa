package admin

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSection is returned when a section id is registered twice.
	ErrDuplicateSection = errors.New("a similar section already exists")
	// ErrSectionNotFound is returned when links target an unknown section.
	ErrSectionNotFound = errors.New("the section does not exist")
	// ErrRegistrySealed is returned for registrations after Seal.
	ErrRegistrySealed = errors.New("registry is sealed, links can only be added during initialization")
	// ErrMissingLinks is returned when a section is extended without links.
	ErrMissingLinks = errors.New("invalid arguments: at minimum a section id and one link are required")
)

// InvariantError reports a link or section that failed validation. Label is
// the default message of the offending entry, used to identify it.
type InvariantError struct {
	Label   string
	Message string
}

func (e *InvariantError) Error() string {
	if e.Label == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s]: %s", e.Label, e.Message)
}

func invariant(ok bool, label, format string, args ...any) error {
	if ok {
		return nil
	}
	return &InvariantError{Label: label, Message: fmt.Sprintf(format, args...)}
}
