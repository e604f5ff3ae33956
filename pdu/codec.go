package pdu

import (
	"bytes"
	"fmt"
	"math"
)

// fieldEncodeFn and fieldDecodeFn carry the runtime version through every layer (base codec, conditional
// wrapper, versioned wrapper) uniformly, since a Subrecord's base codec must also forward the same
// runtime version into its nested Type's encode/decode.
type fieldEncodeFn func(rec Record, w *bitWriter, version *Version) error
type fieldDecodeFn func(rec Record, r *bitReader, version *Version) error

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	default:
		u, err := toUint64(v)
		if err == nil {
			return float64(u), nil
		}
		return 0, fmt.Errorf("value %v (%T) is not a float", v, v)
	}
}

// resolveSiblingLength reads an already-decoded sibling integer field's value, used by Variable and
// sibling-driven Skip fields. The sibling must appear earlier in declaration order (enforced by the
// validator), so by the time this field's codec runs the sibling's slot is already populated.
func resolveSiblingLength(rec Record, siblingName string) (uint64, error) {
	v, ok := rec[siblingName]
	if !ok {
		return 0, fmt.Errorf("sibling length field %q has no value", siblingName)
	}
	return toUint64(v)
}

// buildBaseCodec derives the unwrapped (encode, decode) pair for one field. Custom
// Encode/Decode overrides, when present, replace the derived pair; their decode side still resolves
// sibling-driven Variable/Skip widths, but the custom pair does not receive the runtime version, so a
// Subrecord field with custom codecs does not forward it into its nested Type.
func buildBaseCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	if f.hasCustomCodec() {
		return buildCustomCodec(typeName, f)
	}

	switch f.Type {
	case FieldTypeInteger:
		return buildIntegerCodec(typeName, f)
	case FieldTypeFloat:
		return buildFloatCodec(typeName, f)
	case FieldTypeBinary:
		return buildBinaryCodec(typeName, f)
	case FieldTypeString:
		return buildStringCodec(typeName, f)
	case FieldTypeConstant:
		return buildConstantCodec(typeName, f)
	case FieldTypeSubrecord:
		return buildSubrecordCodec(typeName, f)
	case FieldTypeVirtual:
		return buildVirtualCodec(f)
	case FieldTypeVariable:
		return buildVariableCodec(typeName, f)
	case FieldTypeSkip:
		return buildSkipCodec(typeName, f)
	default:
		return nil, nil, fmt.Errorf("unsupported field type %q", f.Type)
	}
}

func fieldValueOrDefault(rec Record, f Field) (interface{}, bool) {
	if v, ok := rec[f.Name]; ok && v != nil {
		return v, true
	}
	if f.Default != nil {
		return f.Default, true
	}
	return nil, false
}

func buildIntegerCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		raw, ok := fieldValueOrDefault(rec, f)
		if !ok {
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		val, err := toUint64(raw)
		if err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		if err := w.writeUint(val, f.Size, f.Endian); err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		val, err := r.readUint(f.Size, f.Endian)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = val
		return nil
	}
	return enc, dec, nil
}

func buildFloatCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		raw, ok := fieldValueOrDefault(rec, f)
		if !ok {
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		val, err := toFloat64(raw)
		if err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		var bits uint64
		if f.Size == 32 {
			bits = uint64(math.Float32bits(float32(val)))
		} else {
			bits = math.Float64bits(val)
		}
		if err := w.writeUint(bits, f.Size, f.Endian); err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		bits, err := r.readUint(f.Size, f.Endian)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		var val float64
		if f.Size == 32 {
			val = float64(math.Float32frombits(uint32(bits)))
		} else {
			val = math.Float64frombits(bits)
		}
		rec[f.Name] = val
		return nil
	}
	return enc, dec, nil
}

func buildBinaryCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		raw, ok := fieldValueOrDefault(rec, f)
		if !ok {
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		b, ok := raw.([]byte)
		if !ok {
			return &EncodeError{typeName, f.Name, fmt.Errorf("value %T is not []byte", raw)}
		}
		if len(b) < f.Size {
			return &EncodeError{typeName, f.Name, ErrBinaryTooShort}
		}
		w.writeRaw(b[:f.Size], f.Size*8)
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		data, err := r.readRaw(f.Size * 8)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = data
		return nil
	}
	return enc, dec, nil
}

func buildStringCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		raw, ok := fieldValueOrDefault(rec, f)
		if !ok {
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		s, ok := raw.(string)
		if !ok {
			return &EncodeError{typeName, f.Name, fmt.Errorf("value %T is not a string", raw)}
		}
		data := make([]byte, f.Size) // zero-padded; copy below truncates long values
		copy(data, s)
		w.writeRaw(data, f.Size*8)
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		data, err := r.readRaw(f.Size * 8)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = string(bytes.TrimRight(data, "\x00"))
		return nil
	}
	return enc, dec, nil
}

func buildConstantCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	want, _ := toUint64(f.Default)
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		if err := w.writeUint(want, f.Size, f.Endian); err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		got, err := r.readUint(f.Size, f.Endian)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		if got != want {
			return &DecodeError{typeName, f.Name, ErrConstantMismatch}
		}
		return nil
	}
	return enc, dec, nil
}

func buildSubrecordCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, version *Version) error {
		raw, ok := fieldValueOrDefault(rec, f)
		if !ok {
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		sub, ok := raw.(Record)
		if !ok {
			return &EncodeError{typeName, f.Name, fmt.Errorf("value %T is not a Record", raw)}
		}
		if err := f.Sub.encodeInto(sub, w, version); err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, version *Version) error {
		sub, ok := f.Default.(Record)
		if ok {
			sub = sub.Clone()
		} else {
			sub = f.Sub.Default()
		}
		if err := f.Sub.decodeInto(sub, r, version); err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = sub
		return nil
	}
	return enc, dec, nil
}

func buildVirtualCodec(f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		rec[f.Name] = f.Default
		return nil
	}
	return enc, dec, nil
}

func buildVariableCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		n, err := resolveSiblingLength(rec, f.SizeField)
		if err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		raw, ok := rec[f.Name].([]byte)
		if !ok {
			if n == 0 {
				return nil
			}
			return &EncodeError{typeName, f.Name, ErrMissingValue}
		}
		if uint64(len(raw)) < n {
			return &EncodeError{typeName, f.Name, ErrBinaryTooShort}
		}
		w.writeRaw(raw[:n], int(n)*8)
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		n, err := resolveSiblingLength(rec, f.SizeField)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		data, err := r.readRaw(int(n) * 8)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = data
		return nil
	}
	return enc, dec, nil
}

// buildSkipCodec implements the reserved/padding field. When SizeField is set the bit count is resolved
// dynamically from a sibling integer field, exactly like Variable; otherwise Size is used directly as a
// literal bit width. SizeField takes precedence when both could apply.
func buildSkipCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	bitWidth := func(rec Record) (int, error) {
		if f.SizeField != "" {
			n, err := resolveSiblingLength(rec, f.SizeField)
			if err != nil {
				return 0, err
			}
			return int(n), nil
		}
		return f.Size, nil
	}
	want, _ := toUint64(f.Default)
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		n, err := bitWidth(rec)
		if err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		if n == 0 {
			return nil
		}
		if err := w.writeUint(want, n, f.Endian); err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		n, err := bitWidth(rec)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		if n == 0 {
			return nil
		}
		if _, err := r.readRaw(n); err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		return nil
	}
	return enc, dec, nil
}

// buildCustomCodec wraps a user-supplied EncodeFunc/DecodeFunc pair. The framework still resolves the
// field's bit width (including sibling-driven Variable/Skip widths) and still applies the version and
// conditional wrappers around the custom pair.
func buildCustomCodec(typeName string, f Field) (fieldEncodeFn, fieldDecodeFn, error) {
	width := func(rec Record) (int, error) {
		switch f.Type {
		case FieldTypeBinary, FieldTypeString:
			return f.Size * 8, nil
		case FieldTypeVariable:
			n, err := resolveSiblingLength(rec, f.SizeField)
			return int(n) * 8, err
		case FieldTypeSkip:
			if f.SizeField != "" {
				n, err := resolveSiblingLength(rec, f.SizeField)
				return int(n), err
			}
			return f.Size, nil
		default:
			return f.Size, nil
		}
	}
	enc := func(rec Record, w *bitWriter, _ *Version) error {
		raw, _ := fieldValueOrDefault(rec, f)
		data, bitLen, err := f.CustomEncode(raw)
		if err != nil {
			return &EncodeError{typeName, f.Name, err}
		}
		w.writeRaw(data, bitLen)
		return nil
	}
	dec := func(rec Record, r *bitReader, _ *Version) error {
		n, err := width(rec)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		raw, err := r.readRaw(n)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		val, err := f.CustomDecode(raw, n)
		if err != nil {
			return &DecodeError{typeName, f.Name, err}
		}
		rec[f.Name] = val
		return nil
	}
	return enc, dec, nil
}
