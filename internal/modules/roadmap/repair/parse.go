package repair

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Object is a parsed JSON object that remembers the order its keys appeared
// in. Model output is positional prose as much as it is data (goal categories,
// week lists), so document order is meaningful and encoding/json maps would
// lose it.
type Object struct {
	keys   []string
	values map[string]any
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.values[key]
	return ok
}

// Keys returns the object's keys in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON serializes the object with its keys in document order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseError reports that every recovery stage failed. It carries the decode
// error from the final stage and the offending text for diagnostics.
type ParseError struct {
	Err  error
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON after multiple attempts: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse converts near-JSON model output into a generic document. It runs a
// layered fallback cascade, stopping at the first stage that yields a valid
// document:
//
//  1. strip any surrounding markdown code fence and parse directly
//  2. run Sanitize over the text and parse again
//  3. rebuild the text line by line (multi-line activity values collapsed
//     into escaped single-line strings) and parse once more
//
// Each stage escalates cost only when the previous one failed; a well-formed
// response never pays for the repair passes.
func Parse(text string) (*Object, error) {
	text = StripCodeFence(text)

	doc, err := decodeDocument(text)
	if err == nil {
		return doc, nil
	}

	doc, err = decodeDocument(Sanitize(text))
	if err == nil {
		return doc, nil
	}

	doc, err = decodeDocument(sanitizeLineByLine(text))
	if err != nil {
		return nil, &ParseError{Err: err, Text: text}
	}
	return doc, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence, returning the
// trimmed interior. Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		if j := strings.LastIndex(text, "```"); j > i+len("```json") {
			return strings.TrimSpace(text[i+len("```json") : j])
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		if j := strings.LastIndex(text, "```"); j > i+len("```") {
			return strings.TrimSpace(text[i+len("```") : j])
		}
	}
	return strings.TrimSpace(text)
}

func decodeDocument(text string) (*Object, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %T, expected an object", v)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &Object{values: map[string]any{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, expected string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}
