package compose

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the base configuration is absent or is not a mapping,
// or when an override path is malformed. Wrapping sites name the cause.
var ErrInvalidInput = errors.New("invalid input")

var errBaseAbsent = fmt.Errorf("%w: base configuration is absent", ErrInvalidInput)
