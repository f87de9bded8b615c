package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"chatdrop/internal/protocol/frame"
)

func TestTextMessageRoundTrip(t *testing.T) {
	in := Message{ID: "msg-1", Kind: KindText, Body: "hello world"}
	var buf bytes.Buffer
	if err := EncodeMessage(&buf, in, frame.DefaultLimits()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ReadMessage(&buf, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestCommandMessageRoundTripAllByteValues(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	in := Message{ID: "msg-2", Kind: KindCommand, Name: "file", Args: "blob.bin", Payload: payload}

	var buf bytes.Buffer
	if err := EncodeMessage(&buf, in, frame.DefaultLimits()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ReadMessage(&buf, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestCommandMessageWithoutPayloadRoundTrip(t *testing.T) {
	in := Message{ID: "msg-3", Kind: KindCommand, Name: "info", Args: "all good here"}
	var buf bytes.Buffer
	if err := EncodeMessage(&buf, in, frame.DefaultLimits()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ReadMessage(&buf, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Payload != nil {
		t.Fatalf("expected nil payload, got %d bytes", len(out.Payload))
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for _, in := range []Response{
		{Ref: "msg-1", Status: StatusOk, Body: "stored 5 bytes in files/report.txt"},
		{Ref: "msg-2", Status: StatusError, Code: "unknown_command", Body: "unknown command: nope"},
	} {
		var buf bytes.Buffer
		if err := EncodeResponse(&buf, in, frame.DefaultLimits()); err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, err := ReadResponse(&buf, frame.DefaultLimits())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("round-trip mismatch: got=%+v want=%+v", out, in)
		}
	}
}

func TestEncodeMessageUnknownKind(t *testing.T) {
	err := EncodeMessage(bytes.NewBuffer(nil), Message{ID: "x", Kind: Kind(99)}, frame.DefaultLimits())
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeMessageMissingRequiredField(t *testing.T) {
	// A command frame with only the id field: name is required.
	payload := encodeFields([]field{stringField(fieldID, "msg-4")})
	_, err := DecodeMessage(frame.Frame{Kind: uint16(KindCommand), Payload: payload})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestDecodeMessageShortFieldValue(t *testing.T) {
	payload := make([]byte, fieldHeaderLen+1)
	binary.BigEndian.PutUint16(payload[0:2], fieldID)
	payload[2] = typeString
	binary.BigEndian.PutUint32(payload[3:7], 5)
	payload[7] = 'x'

	_, err := DecodeMessage(frame.Frame{Kind: uint16(KindText), Payload: payload})
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestDecodeResponseInvalidStatus(t *testing.T) {
	payload := encodeFields([]field{
		stringField(fieldRef, "msg-5"),
		uint8Field(fieldStatus, 7),
		stringField(fieldBody, "?"),
	})
	_, err := DecodeResponse(frame.Frame{Kind: uint16(KindResponse), Payload: payload})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDecodeResponseRejectsRequestKind(t *testing.T) {
	payload := encodeFields([]field{stringField(fieldID, "msg-6"), stringField(fieldBody, "hi")})
	_, err := DecodeResponse(frame.Frame{Kind: uint16(KindText), Payload: payload})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
