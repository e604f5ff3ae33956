package pdu

// conditionalWrap wraps a field's (encode, decode) pair with a sibling "gate" field. The gate is read
// from the record currently being encoded/decoded: for encode that's the caller's value; for decode it's
// whatever an earlier field in declaration order already assigned (the validator requires Conditional's
// target to precede this field, except when a field gates itself). IsAbsent implements the nil / 0 / ""
// three-valued absence test.
//
// A field may declare itself as its own gate ("conditional: field_c" on field_c) to mean "omit this
// field from the wire whenever its own value is absent." Decode cannot consult the field's own
// not-yet-decoded slot to learn that, so a self-gated field is instead treated as present only while
// bytes remain in the input — the same "decode until the message runs out" discipline a streaming PGN
// decoder uses for optional trailing fields.
func conditionalWrap(gate string, def interface{}, name string, encode fieldEncodeFn, decode fieldDecodeFn) (fieldEncodeFn, fieldDecodeFn) {
	if gate == "" {
		return encode, decode
	}
	selfGated := gate == name

	enc := func(rec Record, w *bitWriter, version *Version) error {
		if IsAbsent(rec[gate]) {
			return nil
		}
		return encode(rec, w, version)
	}
	dec := func(rec Record, r *bitReader, version *Version) error {
		absent := IsAbsent(rec[gate])
		if selfGated {
			absent = r.remainingBits() == 0
		}
		if absent {
			if _, present := rec[name]; !present && def != nil {
				rec[name] = def
			}
			return nil
		}
		return decode(rec, r, version)
	}
	return enc, dec
}
