package pdu

// versionWrap wraps a field's (encode, decode) pair with a version predicate. A nil
// runtime Version always uses the base pair (predicate.matches already implements that rule). When the
// predicate excludes the field, encode emits nothing and decode consumes nothing, leaving the field at
// its declared default (if any) so the invariant "excluded fields stay at default in the returned
// record" holds even when no earlier prototype value populated the slot.
func versionWrap(pred predicate, def interface{}, name string, encode fieldEncodeFn, decode fieldDecodeFn) (fieldEncodeFn, fieldDecodeFn) {
	if !pred.isSet() {
		return encode, decode
	}
	enc := func(rec Record, w *bitWriter, version *Version) error {
		if pred.matches(version) {
			return encode(rec, w, version)
		}
		return nil
	}
	dec := func(rec Record, r *bitReader, version *Version) error {
		if pred.matches(version) {
			return decode(rec, r, version)
		}
		if _, present := rec[name]; !present && def != nil {
			rec[name] = def
		}
		return nil
	}
	return enc, dec
}
