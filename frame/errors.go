package frame

import (
	"errors"
	"fmt"
)

// ErrUsage is the root of all programming/usage errors raised by this
// package. Construction either fully succeeds or fails with one of
// these before a usable object exists.
var ErrUsage = errors.New("frame: usage error")

var (
	ErrBadValueType        = fmt.Errorf("%w: field value must be bytes, int, or string", ErrUsage)
	ErrBadSize             = fmt.Errorf("%w: field size must be int or bytes", ErrUsage)
	ErrMissingName         = fmt.Errorf("%w: item template has no name", ErrUsage)
	ErrBitsizeMismatch     = fmt.Errorf("%w: field names and bitsizes do not match", ErrUsage)
	ErrBitWidth            = fmt.Errorf("%w: bit width mismatch", ErrUsage)
	ErrUnknownBlockType    = fmt.Errorf("%w: unknown block type", ErrUsage)
	ErrAssociationNotFound = fmt.Errorf("%w: association not found", ErrUsage)
	ErrUnknownName         = fmt.Errorf("%w: no field or block with that name", ErrUsage)
	ErrUnknownType         = fmt.Errorf("%w: unknown frame type identifier", ErrUsage)
	ErrNoFrameLayout       = fmt.Errorf("%w: specification declares no frame layout", ErrUsage)
)

// BuildError reports which template item failed during block
// construction. It wraps the underlying sentinel, so errors.Is keeps
// working across the nesting.
type BuildError struct {
	Block string
	Item  string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("frame: building %q item %q: %v", e.Block, e.Item, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
