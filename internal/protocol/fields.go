package protocol

import (
	"encoding/binary"
	"fmt"
)

const fieldHeaderLen = 2 + 1 + 4

// Field type IDs.
const (
	typeUint8  uint8 = 1
	typeString uint8 = 6
	typeBytes  uint8 = 7
)

// Field IDs shared by all message kinds.
const (
	fieldID      uint16 = 1
	fieldBody    uint16 = 2
	fieldName    uint16 = 3
	fieldArgs    uint16 = 4
	fieldPayload uint16 = 5
	fieldRef     uint16 = 6
	fieldStatus  uint16 = 7
	fieldCode    uint16 = 8
)

// field is one TLV entry inside a frame payload.
type field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func stringField(id uint16, v string) field {
	return field{ID: id, Type: typeString, Value: []byte(v)}
}

func bytesField(id uint16, v []byte) field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return field{ID: id, Type: typeBytes, Value: buf}
}

func uint8Field(id uint16, v uint8) field {
	return field{ID: id, Type: typeUint8, Value: []byte{v}}
}

func encodeFields(fields []field) []byte {
	total := 0
	for _, f := range fields {
		total += fieldHeaderLen + len(f.Value)
	}
	out := make([]byte, 0, total)
	for _, f := range fields {
		head := make([]byte, fieldHeaderLen)
		binary.BigEndian.PutUint16(head[0:2], f.ID)
		head[2] = f.Type
		binary.BigEndian.PutUint32(head[3:7], uint32(len(f.Value)))
		out = append(out, head...)
		out = append(out, f.Value...)
	}
	return out
}

func decodeFields(payload []byte) ([]field, error) {
	fields := make([]field, 0, 4)
	for i := 0; i < len(payload); {
		if len(payload)-i < fieldHeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += fieldHeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func getField(fields []field, id uint16) (field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return field{}, false
}

func requireString(fields []field, id uint16) (string, error) {
	f, ok := getField(fields, id)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrMissingField, id)
	}
	if f.Type != typeString {
		return "", fmt.Errorf("%w: field %d", ErrFieldTypeMismatch, id)
	}
	return string(f.Value), nil
}

func optionalString(fields []field, id uint16) (string, error) {
	f, ok := getField(fields, id)
	if !ok {
		return "", nil
	}
	if f.Type != typeString {
		return "", fmt.Errorf("%w: field %d", ErrFieldTypeMismatch, id)
	}
	return string(f.Value), nil
}

func optionalBytes(fields []field, id uint16) ([]byte, error) {
	f, ok := getField(fields, id)
	if !ok {
		return nil, nil
	}
	if f.Type != typeBytes {
		return nil, fmt.Errorf("%w: field %d", ErrFieldTypeMismatch, id)
	}
	return f.Value, nil
}

func requireUint8(fields []field, id uint16) (uint8, error) {
	f, ok := getField(fields, id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrMissingField, id)
	}
	if f.Type != typeUint8 || len(f.Value) != 1 {
		return 0, fmt.Errorf("%w: field %d", ErrFieldTypeMismatch, id)
	}
	return f.Value[0], nil
}
