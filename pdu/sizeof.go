package pdu

import "fmt"

// Unit selects whether SizeofPDU reports bits or bytes.
type Unit int

const (
	UnitBits Unit = iota
	UnitBytes
)

// SizeofKind distinguishes a plain bit count from the "recurse into a subrecord" sentinel.
type SizeofKind int

const (
	SizeofPlain SizeofKind = iota
	SizeofSubrecord
)

// SizeofResult is the per-field size of Sizeof. Bits is valid for SizeofPlain; Sub/SubType are valid
// for SizeofSubrecord and the caller is expected to recurse via SubType.sizeofBits(Sub, version).
type SizeofResult struct {
	Kind    SizeofKind
	Bits    int
	Sub     Record
	SubType *Type
}

// Sizeof returns the runtime bit-size of one field of this PDU's value. It does not
// consult the field's own version predicate — that filtering belongs to SizeofPDU, which sums across
// fields — but it does honor a field's conditional gate, since that is a per-value property, not a
// per-version one.
func (t *Type) Sizeof(rec Record, fieldName string) (SizeofResult, error) {
	cf, ok := t.byName[fieldName]
	if !ok {
		return SizeofResult{}, fmt.Errorf("pdu %q: unknown field %q", t.Name, fieldName)
	}
	f := cf.field

	if f.Conditional != "" && IsAbsent(rec[f.Conditional]) {
		return SizeofResult{Kind: SizeofPlain, Bits: 0}, nil
	}

	switch f.Type {
	case FieldTypeSubrecord:
		sub, _ := rec[f.Name].(Record)
		if sub == nil {
			sub = f.Sub.Default()
		}
		return SizeofResult{Kind: SizeofSubrecord, Sub: sub, SubType: f.Sub}, nil
	case FieldTypeVariable:
		n, err := resolveSiblingLength(rec, f.SizeField)
		if err != nil {
			return SizeofResult{}, err
		}
		return SizeofResult{Kind: SizeofPlain, Bits: int(n) * 8}, nil
	case FieldTypeVirtual:
		return SizeofResult{Kind: SizeofPlain, Bits: 0}, nil
	case FieldTypeSkip:
		if f.SizeField != "" {
			n, err := resolveSiblingLength(rec, f.SizeField)
			if err != nil {
				return SizeofResult{}, err
			}
			return SizeofResult{Kind: SizeofPlain, Bits: int(n)}, nil
		}
		return SizeofResult{Kind: SizeofPlain, Bits: f.Size}, nil
	case FieldTypeBinary, FieldTypeString:
		return SizeofResult{Kind: SizeofPlain, Bits: f.Size * 8}, nil
	default: // Integer, Float, Constant
		return SizeofResult{Kind: SizeofPlain, Bits: f.Size}, nil
	}
}

// SizeofPDU sums per-field sizes, filtering out fields whose version predicate excludes them and
// recursing into subrecords, then returns bits or bytes per unit. Bits are always accumulated through
// the whole recursion and divided by 8 only once, at the outermost call.
func (t *Type) SizeofPDU(rec Record, version *Version, unit Unit) (int, error) {
	bits, err := t.sizeofBits(rec, version)
	if err != nil {
		return 0, err
	}
	if unit == UnitBytes {
		return bits / 8, nil
	}
	return bits, nil
}

func (t *Type) sizeofBits(rec Record, version *Version) (int, error) {
	total := 0
	for _, cf := range t.compiled {
		if !cf.pred.matches(version) {
			continue
		}
		res, err := t.Sizeof(rec, cf.field.Name)
		if err != nil {
			return 0, err
		}
		if res.Kind == SizeofSubrecord {
			subBits, err := res.SubType.sizeofBits(res.Sub, version)
			if err != nil {
				return 0, err
			}
			total += subBits
			continue
		}
		total += res.Bits
	}
	return total, nil
}
