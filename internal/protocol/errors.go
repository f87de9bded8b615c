package protocol

import "errors"

var (
	ErrUnknownKind       = errors.New("protocol: unknown message kind")
	ErrShortFieldHeader  = errors.New("protocol: short field header")
	ErrShortFieldValue   = errors.New("protocol: short field value")
	ErrFieldTypeMismatch = errors.New("protocol: field type mismatch")
	ErrMissingField      = errors.New("protocol: missing required field")
	ErrInvalidStatus     = errors.New("protocol: invalid status value")
)
