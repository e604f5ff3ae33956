package pdu

import "fmt"

// compiledField bundles a declared Field with its compiled version predicate and its fully-wrapped
// (version ∘ conditional ∘ base) encode/decode pair, built once by Define.
type compiledField struct {
	field  Field
	pred   predicate
	encode fieldEncodeFn
	decode fieldDecodeFn
}

// Type is a PDU type descriptor: an ordered sequence of field descriptors plus the generated
// operations, sealed and immutable once returned by Define. It is safe for concurrent use by any number
// of goroutines: Encode and Decode are pure functions of their arguments.
type Type struct {
	Name     string
	Fields   []Field
	compiled []compiledField
	byName   map[string]compiledField
}

// Define validates a field list and compiles it into a sealed Type. Any invariant violation is returned
// as a *SchemaError and no Type is produced.
func Define(name string, fields []Field) (*Type, error) {
	if err := validate(name, fields); err != nil {
		return nil, err
	}

	t := &Type{
		Name:   name,
		Fields: fields,
		byName: make(map[string]compiledField, len(fields)),
	}

	compiled := make([]compiledField, 0, len(fields))
	for _, f := range fields {
		pred, err := parsePredicate(f.Version)
		if err != nil {
			return nil, schemaErr(name, f.Name, err)
		}
		baseEnc, baseDec, err := buildBaseCodec(name, f)
		if err != nil {
			return nil, schemaErr(name, f.Name, err)
		}
		enc, dec := conditionalWrap(f.Conditional, f.Default, f.Name, baseEnc, baseDec)
		enc, dec = versionWrap(pred, f.Default, f.Name, enc, dec)

		cf := compiledField{field: f, pred: pred, encode: enc, decode: dec}
		compiled = append(compiled, cf)
		t.byName[f.Name] = cf
	}
	t.compiled = compiled
	return t, nil
}

// MustDefine is Define, panicking on error; intended for package-level PDU type declarations.
func MustDefine(name string, fields []Field) *Type {
	t, err := Define(name, fields)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the empty default record for this PDU type: Virtual and Subrecord slots are
// pre-populated from their declared defaults, other fields carry their declared Default when they have
// one and are left absent otherwise, and Constant and Skip fields are never part of the record. This is
// the prototype value normally passed to Decode.
func (t *Type) Default() Record {
	rec := make(Record, len(t.Fields))
	for _, f := range t.Fields {
		switch f.Type {
		case FieldTypeVirtual:
			rec[f.Name] = f.Default
		case FieldTypeSubrecord:
			if sub, ok := f.Default.(Record); ok {
				rec[f.Name] = sub.Clone()
			} else if f.Sub != nil {
				rec[f.Name] = f.Sub.Default()
			}
		case FieldTypeConstant, FieldTypeSkip:
			// not part of the value record
		default:
			if f.Default != nil {
				rec[f.Name] = f.Default
			}
		}
	}
	return rec
}

// Encode serializes pdu into a byte string at the given runtime version (nil for "current"): offsets
// are fixed up first, then every field is emitted in declaration order.
func (t *Type) Encode(value Record, version *Version) ([]byte, error) {
	withOffsets, err := t.SetOffsets(value, version)
	if err != nil {
		return nil, err
	}
	w := newBitWriter()
	if err := t.encodeInto(withOffsets, w, version); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// encodeInto writes value's fields onto an existing bitWriter at whatever bit position it is currently
// at. It is the primitive Encode and Subrecord fields share, so a nested PDU's bits continue the
// parent's stream without forcing byte alignment at the subrecord boundary.
func (t *Type) encodeInto(value Record, w *bitWriter, version *Version) error {
	for _, cf := range t.compiled {
		if err := cf.encode(value, w, version); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a prefix of data into a PDU value and returns the unconsumed remainder. prototype
// supplies defaults for Virtual, Subrecord, and otherwise-defaulted fields; pass Type.Default() when
// there is no more specific starting value.
func (t *Type) Decode(prototype Record, data []byte, version *Version) (Record, []byte, error) {
	acc := prototype.Clone()
	r := newBitReader(data)
	if err := t.decodeInto(acc, r, version); err != nil {
		return nil, nil, err
	}
	consumedBytes := (r.nbits + 7) / 8
	if r.nbits%8 != 0 {
		// total bit length is guaranteed a multiple of 8 by the schema invariant; a reader that stops
		// mid-byte means a field's declared size disagreed with what was actually on the wire.
		return acc, data[consumedBytes:], fmt.Errorf("pdu %q: decode stopped at non-byte-aligned bit %d", t.Name, r.nbits)
	}
	return acc, data[consumedBytes:], nil
}

// decodeInto is the bit-level primitive Decode and Subrecord fields share, mirroring encodeInto.
func (t *Type) decodeInto(acc Record, r *bitReader, version *Version) error {
	for _, cf := range t.compiled {
		if err := cf.decode(acc, r, version); err != nil {
			return err
		}
	}
	return nil
}
