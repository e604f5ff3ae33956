// Command pducodec encodes and decodes PDU values against a JSON schema document, purely as a
// file-to-file tool: it never opens a transport (serial, socketcan, TCP) of its own.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aldas/go-pdu-codec/pdu"
	"github.com/aldas/go-pdu-codec/schema"
)

func main() {
	schemaPath := flag.String("schema", "", "path to the PDU schema JSON document")
	typeName := flag.String("type", "", "name of the PDU type to encode/decode, as declared in the schema")
	mode := flag.String("mode", "encode", "encode (JSON value -> hex bytes) or decode (hex bytes -> JSON value)")
	version := flag.String("version", "", "runtime semantic version to encode/decode at, e.g. 2.1.0; empty means unversioned")
	inPath := flag.String("in", "", "input file path; empty reads stdin")
	outPath := flag.String("out", "", "output file path; empty writes stdout")
	flag.Parse()

	if *schemaPath == "" {
		log.Fatal("missing -schema\n")
	}
	if *typeName == "" {
		log.Fatal("missing -type\n")
	}

	doc, err := schema.LoadDocument(os.DirFS("."), *schemaPath)
	if err != nil {
		log.Fatal(err)
	}
	types, err := schema.Compile(doc)
	if err != nil {
		log.Fatal(err)
	}
	typ, ok := types[*typeName]
	if !ok {
		log.Fatalf("schema does not declare a type named %q\n", *typeName)
	}

	var runtimeVersion *pdu.Version
	if *version != "" {
		runtimeVersion, err = pdu.ParseVersion(*version)
		if err != nil {
			log.Fatal(err)
		}
	}

	in, err := openInput(*inPath)
	if err != nil {
		log.Fatal(err)
	}
	defer in.Close()
	out, err := openOutput(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	switch *mode {
	case "encode":
		err = runEncode(typ, runtimeVersion, in, out)
	case "decode":
		err = runDecode(typ, runtimeVersion, in, out)
	default:
		log.Fatalf("unknown -mode %q, want encode or decode\n", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func runEncode(typ *pdu.Type, version *pdu.Version, in io.Reader, out io.Writer) error {
	var raw map[string]interface{}
	if err := json.NewDecoder(in).Decode(&raw); err != nil {
		return fmt.Errorf("pducodec: decoding input JSON: %w", err)
	}
	rec, err := jsonToRecord(typ, raw)
	if err != nil {
		return fmt.Errorf("pducodec: converting input to a record: %w", err)
	}
	data, err := typ.Encode(rec, version)
	if err != nil {
		return fmt.Errorf("pducodec: encode: %w", err)
	}
	_, err = fmt.Fprintln(out, hex.EncodeToString(data))
	return err
}

func runDecode(typ *pdu.Type, version *pdu.Version, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("pducodec: reading input: %w", err)
	}
	raw, err := hex.DecodeString(trimNewline(data))
	if err != nil {
		return fmt.Errorf("pducodec: input is not valid hex: %w", err)
	}
	rec, rest, err := typ.Decode(typ.Default(), raw, version)
	if err != nil {
		return fmt.Errorf("pducodec: decode: %w", err)
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "# %d trailing byte(s) left unconsumed\n", len(rest))
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(recordToJSON(typ, rec))
}

func trimNewline(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return string(b)
}

// jsonToRecord converts a generically-decoded JSON object into a pdu.Record, consulting each field's
// declared type to pick the in-memory representation Encode expects: an unsigned bit-pattern for
// Integer/Skip/Virtual, a float64 for Float, raw bytes (hex-encoded in JSON) for
// Binary/Variable, and a recursively-converted Record for Subrecord.
func jsonToRecord(typ *pdu.Type, raw map[string]interface{}) (pdu.Record, error) {
	rec := make(pdu.Record, len(raw))
	for _, f := range typ.Fields {
		v, present := raw[f.Name]
		if !present {
			continue
		}
		switch f.Type {
		case pdu.FieldTypeInteger, pdu.FieldTypeSkip, pdu.FieldTypeVirtual:
			n, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("field %q: expected a JSON number", f.Name)
			}
			rec[f.Name] = uint64(n)
		case pdu.FieldTypeFloat:
			n, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("field %q: expected a JSON number", f.Name)
			}
			rec[f.Name] = n
		case pdu.FieldTypeBinary, pdu.FieldTypeVariable:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: expected a hex-encoded JSON string", f.Name)
			}
			b, err := hex.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			rec[f.Name] = b
		case pdu.FieldTypeString:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: expected a JSON string", f.Name)
			}
			rec[f.Name] = s
		case pdu.FieldTypeSubrecord:
			sub, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("field %q: expected a JSON object", f.Name)
			}
			subRec, err := jsonToRecord(f.Sub, sub)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			rec[f.Name] = subRec
		}
	}
	return rec, nil
}

// recordToJSON is jsonToRecord's inverse, used to print a decoded Record as human-readable JSON.
func recordToJSON(typ *pdu.Type, rec pdu.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for _, f := range typ.Fields {
		v, present := rec[f.Name]
		if !present {
			continue
		}
		switch x := v.(type) {
		case []byte:
			out[f.Name] = hex.EncodeToString(x)
		case pdu.Record:
			out[f.Name] = recordToJSON(f.Sub, x)
		default:
			out[f.Name] = x
		}
	}
	return out
}
