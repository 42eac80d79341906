package cli

import "errors"

// Sentinel errors returned by commands and shell lines.
var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUnknownObject   = errors.New("unknown object")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnhashableValue = errors.New("value cannot be a member")
)
