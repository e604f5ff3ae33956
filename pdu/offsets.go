package pdu

import "fmt"

// SetOffsets fills in every offset-to field with the byte distance from PDU start to the referenced
// target, honoring version and conditional skipping, or zero when the target is absent. Fields are
// updated in declaration order, against the already-updated record, so an offset-to
// field may itself gate (via Conditional) a later field or be the target of another offset-to field.
// Encode always calls SetOffsets first.
func (t *Type) SetOffsets(rec Record, version *Version) (Record, error) {
	out := rec.Clone()
	for _, cf := range t.compiled {
		f := cf.field
		if f.OffsetTo == "" {
			continue
		}
		if !cf.pred.matches(version) {
			continue // field itself excluded by version; nothing to compute
		}
		offsetBits, present, err := t.offsetBitsTo(out, version, f.OffsetTo)
		if err != nil {
			return nil, err
		}
		if !present {
			out[f.Name] = uint64(0)
			continue
		}
		out[f.Name] = uint64(offsetBits / 8)
	}
	return out, nil
}

// offsetBitsTo sums sizeof-bits over all fields strictly preceding target that survive the version
// filter, recursing into subrecords, then reports whether target itself is present (its own version
// predicate and conditional gate both evaluate to "included").
func (t *Type) offsetBitsTo(rec Record, version *Version, target string) (bits int, present bool, err error) {
	total := 0
	for _, cf := range t.compiled {
		f := cf.field
		if f.Name == target {
			if !cf.pred.matches(version) {
				return 0, false, nil
			}
			if f.Conditional != "" && IsAbsent(rec[f.Conditional]) {
				return 0, false, nil
			}
			return total, true, nil
		}
		if !cf.pred.matches(version) {
			continue
		}
		res, err := t.Sizeof(rec, f.Name)
		if err != nil {
			return 0, false, err
		}
		if res.Kind == SizeofSubrecord {
			subBits, err := res.SubType.sizeofBits(res.Sub, version)
			if err != nil {
				return 0, false, err
			}
			total += subBits
			continue
		}
		total += res.Bits
	}
	return 0, false, fmt.Errorf("pdu %q: offset target %q not found", t.Name, target)
}
