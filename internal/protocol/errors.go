package protocol

import "errors"

var (
	ErrInvalidLength = errors.New("protocol: invalid length")
	ErrInvalidBool   = errors.New("protocol: invalid bool value")
	ErrIntOverflow   = errors.New("protocol: integer overflow")
	ErrUnknownKind   = errors.New("protocol: unknown kind")
	ErrNilMessage    = errors.New("protocol: nil message")
)
