package marshal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// Common errors.
var (
	ErrAmbiguousType    = errors.New("ambiguous element type")
	ErrUnsupportedShape = errors.New("unsupported input shape")
	ErrUnsupportedType  = errors.New("unsupported input type")

	// ErrInvalidType reports an explicit type argument that is not a valid
	// descriptor.
	ErrInvalidType = ctype.ErrInvalidType
)

// AmbiguousTypeError reports a list whose element type cannot be inferred.
type AmbiguousTypeError struct {
	Kinds []ctype.Kind // Distinct kinds observed, in order of first appearance
}

// Error implements the error interface.
func (e *AmbiguousTypeError) Error() string {
	if len(e.Kinds) == 0 {
		return "ambiguous element type: empty list; supply an explicit type"
	}
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("ambiguous element type: list mixes [%s]; supply an explicit type",
		strings.Join(names, ", "))
}

// Unwrap returns ErrAmbiguousType.
func (e *AmbiguousTypeError) Unwrap() error {
	return ErrAmbiguousType
}
