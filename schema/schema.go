// Package schema loads PDU type definitions from a JSON document and compiles them into pdu.Type
// values: a two-step "parse the wire document, then compile it into the runtime representation" shape.
package schema

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/aldas/go-pdu-codec/pdu"
)

// FieldKind mirrors pdu.FieldType but is validated against the JSON document's vocabulary at unmarshal
// time rather than at first use.
type FieldKind string

const (
	KindInteger   FieldKind = "INTEGER"
	KindFloat     FieldKind = "FLOAT"
	KindBinary    FieldKind = "BINARY"
	KindString    FieldKind = "STRING"
	KindConstant  FieldKind = "CONSTANT"
	KindSubrecord FieldKind = "SUBRECORD"
	KindVirtual   FieldKind = "VIRTUAL"
	KindVariable  FieldKind = "VARIABLE"
	KindSkip      FieldKind = "SKIP"
)

// UnmarshalJSON rejects any field kind outside the known vocabulary at load time instead of surfacing a
// confusing failure later at compile time.
func (k *FieldKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch FieldKind(s) {
	case KindInteger, KindFloat, KindBinary, KindString, KindConstant, KindSubrecord, KindVirtual, KindVariable, KindSkip:
		*k = FieldKind(s)
		return nil
	default:
		return fmt.Errorf("schema: unknown field kind %q", s)
	}
}

func (k FieldKind) toFieldType() pdu.FieldType {
	switch k {
	case KindInteger:
		return pdu.FieldTypeInteger
	case KindFloat:
		return pdu.FieldTypeFloat
	case KindBinary:
		return pdu.FieldTypeBinary
	case KindString:
		return pdu.FieldTypeString
	case KindConstant:
		return pdu.FieldTypeConstant
	case KindSubrecord:
		return pdu.FieldTypeSubrecord
	case KindVirtual:
		return pdu.FieldTypeVirtual
	case KindVariable:
		return pdu.FieldTypeVariable
	case KindSkip:
		return pdu.FieldTypeSkip
	default:
		return ""
	}
}

// Document is the root element of a PDU schema JSON file: a named, ordered list of PDU type
// definitions. A type may reference an earlier type (by Name) as a Subrecord field's Sub, but never a
// later one or itself — the schema is a DAG, with no cyclic references.
type Document struct {
	Comment string    `json:"Comment"`
	Version string    `json:"Version"`
	Types   []TypeDef `json:"Types"`
}

// TypeDef is one named PDU type: an ordered field list, compiled by Compile into a *pdu.Type.
type TypeDef struct {
	Name   string     `json:"Name"`
	Fields []FieldDef `json:"Fields"`
}

// FieldDef is the JSON representation of one pdu.Field. Default is kept as a json.RawMessage because its
// shape depends on Kind: a JSON number for Integer/Float/Constant/Skip/Virtual, a hex string for Binary,
// a plain string for String, and ignored for Subrecord (whose default is always its Sub type's
// Default() record).
type FieldDef struct {
	Name        string          `json:"Name"`
	Kind        FieldKind       `json:"Type"`
	Size        int             `json:"Size"`
	SizeField   string          `json:"SizeField"`
	Default     json.RawMessage `json:"Default"`
	Endian      string          `json:"Endian"`
	Version     string          `json:"Version"`
	Conditional string          `json:"Conditional"`
	OffsetTo    string          `json:"OffsetTo"`
	Sub         string          `json:"Sub"`
}

// LoadDocument reads and parses a schema document from filesystem, using an fs.FS so schemas can be
// embedded with go:embed or read from disk interchangeably.
func LoadDocument(filesystem fs.FS, path string) (Document, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("schema: opening %q: %w", path, err)
	}
	defer f.Close()

	doc := Document{}
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("schema: decoding %q: %w", path, err)
	}
	return doc, nil
}

// Compile turns a Document into a name-indexed set of sealed pdu.Type values, compiling each TypeDef in
// document order so a later type's Subrecord fields can reference any earlier one.
func Compile(doc Document) (map[string]*pdu.Type, error) {
	compiled := make(map[string]*pdu.Type, len(doc.Types))
	for _, td := range doc.Types {
		fields := make([]pdu.Field, 0, len(td.Fields))
		for _, fd := range td.Fields {
			f, err := compileField(compiled, fd)
			if err != nil {
				return nil, fmt.Errorf("schema: type %q: %w", td.Name, err)
			}
			fields = append(fields, f)
		}
		typ, err := pdu.Define(td.Name, fields)
		if err != nil {
			return nil, err
		}
		compiled[td.Name] = typ
	}
	return compiled, nil
}

func compileField(known map[string]*pdu.Type, fd FieldDef) (pdu.Field, error) {
	f := pdu.Field{
		Name:        fd.Name,
		Type:        fd.Kind.toFieldType(),
		Size:        fd.Size,
		SizeField:   fd.SizeField,
		Endian:      pdu.Endianness(fd.Endian),
		Version:     fd.Version,
		Conditional: fd.Conditional,
		OffsetTo:    fd.OffsetTo,
	}

	if fd.Kind == KindSubrecord {
		sub, ok := known[fd.Sub]
		if !ok {
			return pdu.Field{}, fmt.Errorf("field %q: subrecord type %q is not defined before this point", fd.Name, fd.Sub)
		}
		f.Sub = sub
		f.Default = sub.Default()
		return f, nil
	}

	def, err := decodeDefault(fd)
	if err != nil {
		return pdu.Field{}, fmt.Errorf("field %q: %w", fd.Name, err)
	}
	f.Default = def
	return f, nil
}

func decodeDefault(fd FieldDef) (interface{}, error) {
	if len(fd.Default) == 0 {
		return nil, nil
	}
	switch fd.Kind {
	case KindInteger, KindFloat, KindConstant, KindSkip, KindVirtual:
		var n uint64
		if err := json.Unmarshal(fd.Default, &n); err != nil {
			return nil, fmt.Errorf("default must be a non-negative integer: %w", err)
		}
		return n, nil
	case KindString:
		var s string
		if err := json.Unmarshal(fd.Default, &s); err != nil {
			return nil, fmt.Errorf("default must be a string: %w", err)
		}
		return s, nil
	case KindBinary, KindVariable:
		var s string
		if err := json.Unmarshal(fd.Default, &s); err != nil {
			return nil, fmt.Errorf("default must be a hex string: %w", err)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("default is not valid hex: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}
