package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// HeaderLen is the fixed wire header size in bytes.
	HeaderLen = 12

	// Magic marks the start of every chatdrop frame.
	Magic uint32 = 0x43444d31 // "CDM1"

	// Version is the only wire version this build speaks.
	Version uint16 = 1
)

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrInvalidMagic       = errors.New("frame: invalid magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrEmptyPayload       = errors.New("frame: empty payload")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrTruncated          = errors.New("frame: truncated payload")
)

// Header is the fixed wire header.
type Header struct {
	Magic      uint32
	Version    uint16
	Kind       uint16
	PayloadLen uint32
}

// Frame is one complete wire message.
type Frame struct {
	Kind    uint16
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 8 * 1024 * 1024,
	}
}

// ReadFrame reads one length-delimited frame from r. A declared payload
// length of zero or above limits is a decode error, never a panic. A clean
// EOF before the first header byte is reported as io.EOF so callers can
// distinguish an orderly close from a truncated frame.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h := DecodeHeader(fixed[:])
	if h.Magic != Magic {
		return Frame{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Frame{}, ErrUnsupportedVersion
	}
	if h.PayloadLen == 0 {
		return Frame{}, ErrEmptyPayload
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncated
		}
		return Frame{}, err
	}

	return Frame{Kind: h.Kind, Payload: payload}, nil
}

// WriteFrame writes f to w as one length-delimited frame.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	payloadLen := len(f.Payload)
	if payloadLen == 0 {
		return ErrEmptyPayload
	}
	if uint64(payloadLen) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	h := Header{
		Magic:      Magic,
		Version:    Version,
		Kind:       f.Kind,
		PayloadLen: uint32(payloadLen),
	}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	_, err := w.Write(f.Payload)
	return err
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.Kind)
	binary.BigEndian.PutUint32(buf[8:12], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) Header {
	return Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    binary.BigEndian.Uint16(b[4:6]),
		Kind:       binary.BigEndian.Uint16(b[6:8]),
		PayloadLen: binary.BigEndian.Uint32(b[8:12]),
	}
}
