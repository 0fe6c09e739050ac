package stream

import "errors"

var (
	// ErrLocked is returned by PushSource.Acquire while another reader holds
	// the reservation.
	ErrLocked = errors.New("stream: source is locked by another reader")

	// ErrClosedPipe is returned when writing to a closed Pipe.
	ErrClosedPipe = errors.New("stream: write on closed pipe")

	// ErrReleased is returned when reading through a released reader.
	ErrReleased = errors.New("stream: reader already released")
)
