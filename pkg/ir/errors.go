package ir

import "errors"

var (
	// ErrInvalidTransition is returned when a tool state change is not in the
	// transition table. The tool state is left unchanged.
	ErrInvalidTransition = errors.New("ir: invalid tool state transition")

	// ErrStatusRegression is returned when a block would leave a terminal
	// status.
	ErrStatusRegression = errors.New("ir: block status cannot regress")

	// ErrBlockSealed is returned when a non-streaming block is mutated.
	ErrBlockSealed = errors.New("ir: block is no longer streaming")

	// ErrBlockNotFound is returned when no block has the requested id.
	ErrBlockNotFound = errors.New("ir: block not found")

	// ErrUnknownBlockType is returned when decoding a block whose type tag is
	// not one of BlockTypes.
	ErrUnknownBlockType = errors.New("ir: unknown block type")

	// ErrNilContent is returned when a block is built without content.
	ErrNilContent = errors.New("ir: block content is nil")
)
