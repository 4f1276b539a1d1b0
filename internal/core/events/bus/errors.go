package bus

import "errors"

var (
	ErrNilEvent       = errors.New("event is nil")
	ErrNilHandler     = errors.New("event handler is nil")
	ErrEmptyEventName = errors.New("event name is empty")
)
