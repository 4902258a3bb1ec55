package model

import "errors"

// Engine errors. ErrAttributeNotAllowed is the schema rejection that rolls a
// whole transaction back.
var (
	ErrAttributeNotAllowed = errors.New("attribute not allowed by schema")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrInvalidRange        = errors.New("invalid range")
	ErrEmptyText           = errors.New("text must not be empty")
)
