package dag

import "errors"

// Validation failures: a closed set of conditions a caller can match
// against with errors.Is, in the style of katalvlaran/lvlath's core
// package sentinel errors.
var (
	// ErrNilParameter is returned by SwapParameter when old or new is nil.
	ErrNilParameter = errors.New("dag: nil parameter in swap")

	// ErrParameterNotFound is returned by SwapParameter when old does not
	// match any current parameter of the distribution or function.
	ErrParameterNotFound = errors.New("dag: parameter not found for swap")

	// ErrSelfEdge is returned when a node is wired as its own parent.
	ErrSelfEdge = errors.New("dag: self-referential edge")

	// ErrUnsupportedTrace is returned by WriteToFile for a value type
	// that does not implement Serializer.
	ErrUnsupportedTrace = errors.New("dag: unsupported value kind for trace")
)
