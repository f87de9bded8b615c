package protocol

import (
	"fmt"
	"io"

	"chatdrop/internal/protocol/frame"
)

// EncodeMessage serializes m into one frame and writes it to w. Binary
// payloads ride inside an explicitly typed bytes field, so arbitrary content
// round-trips losslessly.
func EncodeMessage(w io.Writer, m Message, limits frame.Limits) error {
	fields := []field{stringField(fieldID, m.ID)}
	switch m.Kind {
	case KindText:
		fields = append(fields, stringField(fieldBody, m.Body))
	case KindCommand:
		fields = append(fields, stringField(fieldName, m.Name), stringField(fieldArgs, m.Args))
		if m.Payload != nil {
			fields = append(fields, bytesField(fieldPayload, m.Payload))
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, m.Kind)
	}
	return frame.WriteFrame(w, frame.Frame{Kind: uint16(m.Kind), Payload: encodeFields(fields)}, limits)
}

// DecodeMessage parses a received frame into a Message.
func DecodeMessage(fr frame.Frame) (Message, error) {
	fields, err := decodeFields(fr.Payload)
	if err != nil {
		return Message{}, err
	}
	id, err := requireString(fields, fieldID)
	if err != nil {
		return Message{}, err
	}

	switch Kind(fr.Kind) {
	case KindText:
		body, err := requireString(fields, fieldBody)
		if err != nil {
			return Message{}, err
		}
		return Message{ID: id, Kind: KindText, Body: body}, nil
	case KindCommand:
		name, err := requireString(fields, fieldName)
		if err != nil {
			return Message{}, err
		}
		args, err := optionalString(fields, fieldArgs)
		if err != nil {
			return Message{}, err
		}
		payload, err := optionalBytes(fields, fieldPayload)
		if err != nil {
			return Message{}, err
		}
		return Message{ID: id, Kind: KindCommand, Name: name, Args: args, Payload: payload}, nil
	default:
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownKind, fr.Kind)
	}
}

// ReadMessage reads and decodes the next Message from the stream.
func ReadMessage(r io.Reader, limits frame.Limits) (Message, error) {
	fr, err := frame.ReadFrame(r, limits)
	if err != nil {
		return Message{}, err
	}
	return DecodeMessage(fr)
}

// EncodeResponse serializes resp into one frame and writes it to w.
func EncodeResponse(w io.Writer, resp Response, limits frame.Limits) error {
	fields := []field{
		stringField(fieldRef, resp.Ref),
		uint8Field(fieldStatus, uint8(resp.Status)),
		stringField(fieldBody, resp.Body),
	}
	if resp.Code != "" {
		fields = append(fields, stringField(fieldCode, resp.Code))
	}
	return frame.WriteFrame(w, frame.Frame{Kind: uint16(KindResponse), Payload: encodeFields(fields)}, limits)
}

// DecodeResponse parses a received frame into a Response.
func DecodeResponse(fr frame.Frame) (Response, error) {
	if Kind(fr.Kind) != KindResponse {
		return Response{}, fmt.Errorf("%w: %d", ErrUnknownKind, fr.Kind)
	}
	fields, err := decodeFields(fr.Payload)
	if err != nil {
		return Response{}, err
	}
	ref, err := requireString(fields, fieldRef)
	if err != nil {
		return Response{}, err
	}
	status, err := requireUint8(fields, fieldStatus)
	if err != nil {
		return Response{}, err
	}
	if status != uint8(StatusOk) && status != uint8(StatusError) {
		return Response{}, ErrInvalidStatus
	}
	body, err := requireString(fields, fieldBody)
	if err != nil {
		return Response{}, err
	}
	code, err := optionalString(fields, fieldCode)
	if err != nil {
		return Response{}, err
	}
	return Response{Ref: ref, Status: Status(status), Code: code, Body: body}, nil
}

// ReadResponse reads and decodes the next Response from the stream.
func ReadResponse(r io.Reader, limits frame.Limits) (Response, error) {
	fr, err := frame.ReadFrame(r, limits)
	if err != nil {
		return Response{}, err
	}
	return DecodeResponse(fr)
}
