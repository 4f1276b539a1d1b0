package log

import "errors"

// Writer construction and write errors.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrExtensionNotLoaded = errors.New("extension not loaded")
	ErrRuntime            = errors.New("runtime error")
)
