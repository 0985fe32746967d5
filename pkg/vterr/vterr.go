// Package vterr defines the typed domain error model shared by the tile
// operation packages (pkg/composite, pkg/localize) and re-exported as the
// public error type from pkg/vtedit.
package vterr

// Kind classifies a domain failure surfaced by a composite or localize
// operation.
type Kind string

const (
	// InputValidation means the caller-supplied request is malformed;
	// surfaced before any work starts.
	InputValidation Kind = "InputValidation"
	// InvalidRequest means the request was well-formed but inapplicable,
	// e.g. a composite source tile outside the target's pyramid.
	InvalidRequest Kind = "InvalidRequest"
	// DecodeError means malformed gzip, malformed protobuf, or malformed
	// geometry in a version-2-or-later layer.
	DecodeError Kind = "DecodeError"
	// SizeLimit means decompressed tile output exceeded the configured cap.
	SizeLimit Kind = "SizeLimit"
	// Internal means an unexpected failure during serialization.
	Internal Kind = "Internal"
)

// Error is the typed error surfaced to callers of composite/localize
// operations.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs a typed Error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
