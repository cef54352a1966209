package interaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Kind tags the shape of a decoded Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// maxDepth bounds both decoding and unwrapping of nested containers. A
// container deeper than that decodes as absent; its siblings are kept.
const maxDepth = 32

// Value is one raw extracted value of unknown shape. Objects keep their keys in
// document order so "first non-empty member" is deterministic.
type Value struct {
	Kind   Kind
	Str    string  // string contents, or the literal text of a number
	Bool   bool    // KindBool
	Items  []Value // KindList
	Keys   []string
	Fields []Value // KindObject, parallel to Keys
}

// String builds a KindString value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List builds a KindList value.
func List(items ...Value) Value { return Value{Kind: KindList, Items: items} }

// Object builds a KindObject value from alternating key/value pairs.
func Object(pairs ...any) Value {
	v := Value{Kind: KindObject}
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		val, ok := pairs[i+1].(Value)
		if !ok {
			val = String(fmt.Sprint(pairs[i+1]))
		}
		v.Keys = append(v.Keys, k)
		v.Fields = append(v.Fields, val)
	}
	return v
}

// Decode parses raw JSON into a Value. It never fails: empty input is absent,
// and input that is not a single JSON document is kept as a bare string.
func Decode(data []byte) Value {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	v, err := decodeValue(dec, 0)
	if err == nil {
		if _, err = dec.Token(); errors.Is(err, io.EOF) {
			return v
		}
	}
	return String(string(trimmed))
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	if d, ok := tok.(json.Delim); ok && depth >= maxDepth && (d == '[' || d == '{') {
		return Value{}, skipContainer(dec)
	}

	switch t := tok.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case string:
		return String(t), nil
	case json.Number:
		return Value{Kind: KindNumber, Str: t.String()}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case json.Delim:
		switch t {
		case '[':
			v := Value{Kind: KindList}
			for dec.More() {
				item, err := decodeValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				v.Items = append(v.Items, item)
			}
			_, err := dec.Token()
			return v, err
		case '{':
			v := Value{Kind: KindObject}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key %v is not a string", kt)
				}
				member, err := decodeValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				v.Keys = append(v.Keys, key)
				v.Fields = append(v.Fields, member)
			}
			_, err := dec.Token()
			return v, err
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// skipContainer consumes the rest of a container whose opening delimiter was
// just read, leaving the decoder after its matching close.
func skipContainer(dec *json.Decoder) error {
	for open := 1; open > 0; {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			open++
		case json.Delim(']'), json.Delim('}'):
			open--
		}
	}
	return nil
}

// IsEmpty reports whether v carries nothing usable: absent, null, a blank
// string, or a container with no entries.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindAbsent, KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindList:
		return len(v.Items) == 0
	case KindObject:
		return len(v.Keys) == 0
	}
	return false
}

// Text renders a leaf value as text. Containers render as "".
func (v Value) Text() string {
	switch v.Kind {
	case KindString, KindNumber:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	}
	return ""
}

// Get returns the first object member whose key folds to the same name,
// ignoring case and punctuation ("HCP Name", "hcpName", "hcp_name").
func (v Value) Get(name string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	want := foldKey(name)
	for i, k := range v.Keys {
		if foldKey(k) == want {
			return v.Fields[i], true
		}
	}
	return Value{}, false
}

func (v Value) members() []Value {
	switch v.Kind {
	case KindList:
		return v.Items
	case KindObject:
		return v.Fields
	}
	return nil
}

func (v Value) firstNonEmpty() Value {
	for _, m := range v.members() {
		if !m.IsEmpty() {
			return m
		}
	}
	return Value{}
}

// resolve unwraps containers down to a single leaf: the member called name
// when it exists and is non-empty, otherwise the first non-empty member.
func (v Value) resolve(name string) Value {
	for range maxDepth {
		switch v.Kind {
		case KindObject:
			if m, ok := v.Get(name); ok && name != "" && !m.IsEmpty() {
				v = m
				continue
			}
			v = v.firstNonEmpty()
		case KindList:
			v = v.firstNonEmpty()
		default:
			return v
		}
	}
	return Value{}
}

func foldKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
