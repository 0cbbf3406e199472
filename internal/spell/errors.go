package spell

import (
	"errors"
	"fmt"
)

// Extraction failures. Each concrete error type below unwraps to one of
// these so callers can use errors.Is.
var (
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")
	ErrUnexpectedLabel     = errors.New("unexpected label")
	ErrMissingAttribute    = errors.New("missing attribute")
	ErrIncomplete          = errors.New("incomplete spell")
)

// UnsupportedNodeKindError means the active state has no handler for a
// node it was asked to visit.
type UnsupportedNodeKindError struct {
	State State
	Kind  string
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("%s %q in state %s", ErrUnsupportedNodeKind, e.Kind, e.State)
}

func (e *UnsupportedNodeKindError) Unwrap() error { return ErrUnsupportedNodeKind }

// UnexpectedLabelError means a field paragraph's bold label did not read
// exactly as expected.
type UnexpectedLabelError struct {
	State State
	Want  string
	Got   string
}

func (e *UnexpectedLabelError) Error() string {
	return fmt.Sprintf("%s in state %s: want %q, got %q", ErrUnexpectedLabel, e.State, e.Want, e.Got)
}

func (e *UnexpectedLabelError) Unwrap() error { return ErrUnexpectedLabel }

// MissingAttributeError means a node lacked an attribute a field is read from.
type MissingAttributeError struct {
	State     State
	Kind      string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s %q on %s in state %s", ErrMissingAttribute, e.Attribute, e.Kind, e.State)
}

func (e *MissingAttributeError) Unwrap() error { return ErrMissingAttribute }

// IncompleteError means the walk finished before the body was reached.
type IncompleteError struct {
	State State
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: walk ended in state %s", ErrIncomplete, e.State)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// IsExtractionError reports whether err is a document-shape failure
// rather than an I/O or parse failure.
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrUnsupportedNodeKind) ||
		errors.Is(err, ErrUnexpectedLabel) ||
		errors.Is(err, ErrMissingAttribute) ||
		errors.Is(err, ErrIncomplete)
}

// ErrorKind returns a stable snake_case name for an extraction error,
// or "" for anything else.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedNodeKind):
		return "unsupported_node_kind"
	case errors.Is(err, ErrUnexpectedLabel):
		return "unexpected_label"
	case errors.Is(err, ErrMissingAttribute):
		return "missing_attribute"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	}
	return ""
}
