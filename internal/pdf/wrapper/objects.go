package wrapper

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Object is a decoded PDF object. The set of implementations is closed:
// Null, Boolean, Integer, Real, Name, String, Array, Dict, Reference, Stream.
type Object interface {
	Kind() Kind
}

// Kind identifies the type of an Object
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindName
	KindString
	KindArray
	KindDict
	KindReference
	KindStream
)

var kindNames = [...]string{"null", "boolean", "integer", "real", "name", "string", "array", "dict", "reference", "stream"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ObjectID is the stable identity of an indirect object.
type ObjectID struct {
	Number     int `json:"number"`
	Generation int `json:"generation"`
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d R", id.Number, id.Generation)
}

type (
	Null    struct{}
	Boolean bool
	Integer int64
	Real    float64
	Name    string
	// String holds the raw bytes of a literal or hex string.
	String    []byte
	Array     []Object
	Dict      map[string]Object
	Reference ObjectID
	// Stream only exposes its dictionary; content is never needed for links or outlines.
	Stream struct {
		Dict Dict
	}
)

func (Null) Kind() Kind      { return KindNull }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Integer) Kind() Kind   { return KindInteger }
func (Real) Kind() Kind      { return KindReal }
func (Name) Kind() Kind      { return KindName }
func (String) Kind() Kind    { return KindString }
func (Array) Kind() Kind     { return KindArray }
func (Dict) Kind() Kind      { return KindDict }
func (Reference) Kind() Kind { return KindReference }
func (Stream) Kind() Kind    { return KindStream }

// ID returns the referenced object identity.
func (r Reference) ID() ObjectID { return ObjectID(r) }

// Ref builds a Reference to object num with generation 0.
func Ref(num int) Reference { return Reference{Number: num} }

// Get returns the value stored under key, or nil.
func (d Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d[key]
}

// NameEntry returns the name stored directly under key.
func (d Dict) NameEntry(key string) (string, bool) {
	n, ok := d.Get(key).(Name)
	return string(n), ok
}

// Number converts Integer and Real objects to float64.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// IsNull reports whether obj is absent or the null object.
func IsNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}

var (
	utf16BOM = []byte{0xFE, 0xFF}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}

	// ErrInvalidText is returned when a text string cannot be decoded.
	ErrInvalidText = errors.New("invalid text string encoding")
)

// Text decodes a PDF text string. Strings with a UTF-16BE byte order mark are
// decoded as UTF-16, strings with a UTF-8 byte order mark as UTF-8 and
// everything else as PDFDocEncoding, which is approximated with Windows-1252.
func (s String) Text() (string, error) {
	raw := []byte(s)
	switch {
	case bytes.HasPrefix(raw, utf16BOM):
		if len(raw)%2 != 0 {
			return "", fmt.Errorf("%w: odd UTF-16 length %d", ErrInvalidText, len(raw))
		}
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidText, err)
		}
		if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
			return "", fmt.Errorf("%w: unpaired surrogate", ErrInvalidText)
		}
		return string(out), nil
	case bytes.HasPrefix(raw, utf8BOM):
		out := raw[len(utf8BOM):]
		if !utf8.Valid(out) {
			return "", fmt.Errorf("%w: malformed UTF-8", ErrInvalidText)
		}
		return string(out), nil
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidText, err)
		}
		return string(out), nil
	}
}
