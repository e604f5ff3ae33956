package pdu

import "fmt"

// validate runs the schema-time invariant checks over a field list. Any failure is returned
// as a *SchemaError naming the offending field.
func validate(typeName string, fields []Field) error {
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return schemaErr(typeName, "", fmt.Errorf("field at index %d has no name", i))
		}
		if prev, ok := seen[f.Name]; ok {
			return schemaErr(typeName, f.Name, fmt.Errorf("field name collides with field at index %d", prev))
		}
		seen[f.Name] = i
	}

	totalFixedBits := 0
	for i, f := range fields {
		switch f.Type {
		case FieldTypeInteger, FieldTypeFloat, FieldTypeConstant, FieldTypeSkip:
			if f.SizeField == "" {
				totalFixedBits += f.Size
			}
		case FieldTypeBinary, FieldTypeString:
			totalFixedBits += f.Size * 8
		case FieldTypeSubrecord, FieldTypeVirtual, FieldTypeVariable:
			// subrecord contributes a multiple of 8 by its own (recursively validated) invariant;
			// virtual contributes 0; variable's width is unknown until runtime.
		}

		if f.Type == FieldTypeConstant && f.Default == nil {
			return schemaErr(typeName, f.Name, fmt.Errorf("constant field must declare a default"))
		}
		if f.Type == FieldTypeSubrecord {
			if f.Sub == nil {
				return schemaErr(typeName, f.Name, fmt.Errorf("subrecord field must declare Sub"))
			}
			if f.Default == nil {
				return schemaErr(typeName, f.Name, fmt.Errorf("subrecord field must declare a default"))
			}
			if _, ok := f.Default.(Record); !ok {
				return schemaErr(typeName, f.Name, fmt.Errorf("subrecord default must be a Record"))
			}
		}
		if f.Type == FieldTypeFloat && f.Size != 32 && f.Size != 64 {
			return schemaErr(typeName, f.Name, fmt.Errorf("float size must be 32 or 64, got %d", f.Size))
		}
		if (f.Type == FieldTypeVariable) && f.SizeField == "" {
			return schemaErr(typeName, f.Name, fmt.Errorf("variable field must name a sibling length field"))
		}
		if (f.Type == FieldTypeVariable || f.Type == FieldTypeSkip) && f.SizeField != "" {
			siblingIdx, ok := seen[f.SizeField]
			if !ok {
				return schemaErr(typeName, f.Name, fmt.Errorf("size field %q does not exist", f.SizeField))
			}
			if siblingIdx >= i {
				return schemaErr(typeName, f.Name, fmt.Errorf("size field %q must be declared before this field", f.SizeField))
			}
			if fields[siblingIdx].Type != FieldTypeInteger {
				return schemaErr(typeName, f.Name, fmt.Errorf("size field %q must be an integer field", f.SizeField))
			}
		}
		if f.OffsetTo != "" {
			if f.Type != FieldTypeInteger || f.hasCustomCodec() {
				return schemaErr(typeName, f.Name, fmt.Errorf("offset_to field must be a plain integer field"))
			}
			if _, ok := seen[f.OffsetTo]; !ok {
				return schemaErr(typeName, f.Name, fmt.Errorf("offset_to target %q does not exist", f.OffsetTo))
			}
		}
		if f.Conditional != "" && f.Conditional != f.Name {
			gateIdx, ok := seen[f.Conditional]
			if !ok {
				return schemaErr(typeName, f.Name, fmt.Errorf("conditional target %q does not exist", f.Conditional))
			}
			if gateIdx >= i {
				return schemaErr(typeName, f.Name, fmt.Errorf("conditional target %q must be declared before this field", f.Conditional))
			}
		}
		if (f.CustomEncode == nil) != (f.CustomDecode == nil) {
			return schemaErr(typeName, f.Name, fmt.Errorf("field declaring encode must also declare decode, and vice versa"))
		}
		if f.Version != "" {
			if _, err := parsePredicate(f.Version); err != nil {
				return schemaErr(typeName, f.Name, err)
			}
		}
	}

	if totalFixedBits%8 != 0 {
		return schemaErr(typeName, "", fmt.Errorf("total fixed bit width %d is not byte-aligned", totalFixedBits))
	}
	return nil
}
