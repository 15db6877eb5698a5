package loaders

import "errors"

var (
	// ErrInvalidFormat reports a mesh file that does not follow its format
	ErrInvalidFormat = errors.New("invalid mesh file")
	// ErrUnsupportedFormat reports a valid file using a feature or encoding that is not handled
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
)
