package session

import "errors"

var (
	// ErrUnsupportedVersion indicates a session record written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported session record version")

	// ErrCorruptRecord indicates a session document that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt session record")
)
