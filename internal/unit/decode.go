package unit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"

	"borrowck/internal/diag"
)

// SupportedFormat is the constraint the "format" field must satisfy.
const SupportedFormat = "^1"

// CurrentFormat is written by Encode.
const CurrentFormat = "1.0.0"

var supported = mustConstraint(SupportedFormat)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

type Encoding uint8

const (
	EncodingUnknown Encoding = iota
	EncodingJSON
	EncodingMsgpack
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// File extensions recognised by EncodingOf.
const (
	ExtJSON    = ".bck.json"
	ExtMsgpack = ".bck.mp"
)

// EncodingOf picks the encoding from a file name.
func EncodingOf(path string) Encoding {
	switch {
	case strings.HasSuffix(path, ExtJSON):
		return EncodingJSON
	case strings.HasSuffix(path, ExtMsgpack):
		return EncodingMsgpack
	default:
		return EncodingUnknown
	}
}

// Error is a problem with an input document. Code is one of the IO codes.
type Error struct {
	Code diag.Code
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the diagnostic code carried by err, or IOLoadFileError.
func CodeOf(err error) diag.Code {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return diag.IOLoadFileError
}

// Message describes err without the file path, for diagnostics that are
// already located in the file.
func Message(err error) string {
	var ue *Error
	if !errors.As(err, &ue) {
		return err.Error()
	}
	if ue.Err != nil {
		return ue.Msg + ": " + ue.Err.Error()
	}
	return ue.Msg
}

// Document is a parsed input file that has not been converted to ast yet.
type Document struct {
	raw     rawUnit
	version *semver.Version
}

// Path is the path recorded inside the document, which may be empty.
func (d *Document) Path() string { return d.raw.Path }

// Source is the original program text, when the front end embedded it.
func (d *Document) Source() []byte {
	if d.raw.Source == "" {
		return nil
	}
	return []byte(d.raw.Source)
}

func (d *Document) Version() *semver.Version { return d.version }

// Parse decodes data and checks its format version. path only labels errors.
func Parse(path string, data []byte, enc Encoding) (*Document, error) {
	var raw rawUnit
	switch enc {
	case EncodingJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, &Error{Code: diag.IODecodeError, Path: path, Msg: "invalid JSON unit", Err: err}
		}
	case EncodingMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		dec.DisallowUnknownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, &Error{Code: diag.IODecodeError, Path: path, Msg: "invalid msgpack unit", Err: err}
		}
	default:
		return nil, &Error{Code: diag.IOUnsupportedFile, Path: path, Msg: fmt.Sprintf("unsupported input file (expected %s or %s)", ExtJSON, ExtMsgpack)}
	}

	if raw.Format == "" {
		return nil, &Error{Code: diag.IOFormatVersion, Path: path, Msg: "missing format version"}
	}
	v, err := semver.NewVersion(raw.Format)
	if err != nil {
		return nil, &Error{Code: diag.IOFormatVersion, Path: path, Msg: fmt.Sprintf("invalid format version %q", raw.Format), Err: err}
	}
	if !supported.Check(v) {
		return nil, &Error{Code: diag.IOFormatVersion, Path: path, Msg: fmt.Sprintf("format version %s does not satisfy %s", v, SupportedFormat)}
	}
	return &Document{raw: raw, version: v}, nil
}

// Encode writes d in the given encoding.
func (d *Document) Encode(enc Encoding) ([]byte, error) {
	raw := d.raw
	if raw.Format == "" {
		raw.Format = CurrentFormat
	}
	switch enc {
	case EncodingJSON:
		return json.MarshalIndent(&raw, "", "  ")
	case EncodingMsgpack:
		var buf bytes.Buffer
		e := msgpack.NewEncoder(&buf)
		e.SetCustomStructTag("json")
		e.SetOmitEmpty(true)
		if err := e.Encode(&raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("cannot encode as %s", enc)
	}
}
