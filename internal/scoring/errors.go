package scoring

import (
	"errors"
	"strings"
)

var (
	// ErrNotEnoughData signals the absence of a fact. It is never the same thing as a low
	// score: a model returning it says "I cannot tell", not "this is bad".
	ErrNotEnoughData = errors.New("not enough data")

	// ErrMissingTemplateVariable is returned when a template references a variable that
	// cannot be populated for the current project.
	ErrMissingTemplateVariable = errors.New("missing template variable")

	// ErrUnknownModel is returned when an identifier resolves to no model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrDuplicateModel is returned when an identifier or a pattern is registered twice.
	ErrDuplicateModel = errors.New("duplicate model")

	// ErrAmbiguousPattern is returned by the registry self-test when two patterns match the
	// same identifier and build different models.
	ErrAmbiguousPattern = errors.New("ambiguous pattern")
)

// UnresolvedModelsError lists identifiers referenced by content that resolve to no model.
type UnresolvedModelsError struct {
	IDs []string
}

// Error returns the list of unresolved identifiers.
func (e *UnresolvedModelsError) Error() string {
	return "unresolved models: " + strings.Join(e.IDs, ", ")
}

// Is makes the error match ErrUnknownModel.
func (e *UnresolvedModelsError) Is(target error) bool {
	return target == ErrUnknownModel
}
