// Package vtedit is the public entry point for the composite and localize
// tile operations: request/result types, the typed error model, and the
// validated Composite/Localize functions that tie the lower-level
// pkg/zxy, pkg/tilecodec, pkg/clip, pkg/overzoom, pkg/composite and
// pkg/localize packages together.
package vtedit

import "github.com/valpere/vtedit/pkg/vterr"

// ErrorKind classifies a domain failure surfaced by Composite or Localize.
type ErrorKind = vterr.Kind

// The five domain error kinds from the error handling design.
const (
	InputValidation = vterr.InputValidation
	InvalidRequest  = vterr.InvalidRequest
	DecodeError     = vterr.DecodeError
	SizeLimit       = vterr.SizeLimit
	Internal        = vterr.Internal
)

// Error is the typed error surfaced to callers of Composite and Localize.
type Error = vterr.Error

// NewError constructs a typed Error.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return vterr.New(kind, message, cause)
}
