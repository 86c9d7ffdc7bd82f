package driver

import "errors"

// ErrInvalidConfig indicates driver settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid driver config")
