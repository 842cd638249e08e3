package hierarchy

import "errors"

// ErrInvalidPath is returned when a raw path is empty or contains empty
// segments and therefore cannot be canonicalized.
var ErrInvalidPath = errors.New("hierarchy: invalid path")
