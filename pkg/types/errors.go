package types

import "errors"

// Command invocation errors. Executing a disabled command is a caller bug;
// the UI is expected to gate its own controls on IsEnabled.
var (
	ErrCommandDisabled = errors.New("command is disabled")
	ErrEmptyLinkID     = errors.New("link id must not be empty")
)

// Session lifecycle errors.
var (
	ErrSessionClosed = errors.New("editor session is closed")
	ErrNilDocument   = errors.New("document must not be nil")
)
