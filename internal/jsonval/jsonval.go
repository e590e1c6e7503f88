// Package jsonval converts between JSON documents and strpack values.
//
// Object key order is preserved in both directions: objects become
// *value.Record and records are written in insertion order. Values without a
// JSON counterpart are written in a readable lossy form:
//   - sets as arrays
//   - maps as arrays of [key, value] pairs
//   - buffers as base64 strings and views as arrays of their elements
//   - dates as RFC 3339 strings and patterns as "/source/flags"
//   - undefined, NaN and infinities as null
//
// A composite reached again while it is being written is replaced by the
// string "[Circular]".
package jsonval

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/arloliu/strpack/endian"
	"github.com/arloliu/strpack/value"
)

// Circular replaces a composite that contains itself.
const Circular = "[Circular]"

// maxSafeInteger is the largest integer a JSON number carries exactly in
// most consumers; larger integers are parsed as float64.
const maxSafeInteger = 1<<53 - 1

// Decode reads one JSON document. Integers within ±(2^53-1) become int64,
// other numbers float64.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("JSON parse error: data after top-level value")
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected %q", t)
		}
	case json.Number:
		return number(t)
	case nil, bool, string:
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported JSON token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (*value.Record, error) {
	rec := value.NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key of type %T", tok)
		}

		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", key, err)
		}
		rec.Set(key, v)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return rec, nil
}

func decodeArray(dec *json.Decoder) (*value.List, error) {
	list := value.NewList()
	for i := 0; dec.More(); i++ {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		list.Append(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return list, nil
}

func number(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil && i >= -maxSafeInteger && i <= maxSafeInteger {
		return i, nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n, err)
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
		return int64(f), nil
	}

	return f, nil
}

// Encode writes v as JSON. With indent set, nested values are indented by
// that string.
//
// Parameters:
//   - v: Value produced by strpack decoding or built from the value package
//   - indent: Indentation per level, or "" for compact output
//
// Returns:
//   - []byte: The JSON document
//   - error: When v holds a Go type that has no JSON form
func Encode(v any, indent string) ([]byte, error) {
	e := &encoder{seen: make(map[any]bool)}
	e.str = json.NewEncoder(&e.buf)
	e.str.SetEscapeHTML(false)
	if err := e.write(v); err != nil {
		return nil, err
	}
	if indent == "" {
		return e.buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, e.buf.Bytes(), "", indent); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

type encoder struct {
	buf  bytes.Buffer
	str  *json.Encoder
	seen map[any]bool
}

func (e *encoder) write(v any) error {
	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		e.buf.WriteString(strconv.FormatBool(x))
	case string:
		e.writeString(x)
	case int:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		e.buf.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		e.buf.WriteString(strconv.FormatUint(x, 10))
	case float64:
		e.writeFloat(x)
	case *value.Record, *value.List, *value.Set, *value.Map, *value.View:
		return e.writeComposite(x)
	case *value.Buffer:
		e.writeString(base64.StdEncoding.EncodeToString(x.Data))
	case []byte:
		e.writeString(base64.StdEncoding.EncodeToString(x))
	case *value.Date:
		e.writeString(x.Time().Format(time.RFC3339Nano))
	case time.Time:
		e.writeString(x.UTC().Format(time.RFC3339Nano))
	case *value.RegExp:
		e.writeString(x.String())
	default:
		if value.IsUndefined(v) {
			e.buf.WriteString("null")
			return nil
		}

		return fmt.Errorf("no JSON form for %T", v)
	}

	return nil
}

func (e *encoder) writeString(s string) {
	// Encoding a string cannot fail. Encode appends a newline.
	_ = e.str.Encode(s)
	e.buf.Truncate(e.buf.Len() - 1)
}

func (e *encoder) writeFloat(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.buf.WriteString("null")
		return
	}
	e.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func (e *encoder) writeComposite(v any) error {
	if e.seen[v] {
		e.writeString(Circular)
		return nil
	}
	e.seen[v] = true
	defer delete(e.seen, v)

	switch x := v.(type) {
	case *value.Record:
		e.buf.WriteByte('{')
		i := 0
		for k, item := range x.All() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			i++
			e.writeString(k)
			e.buf.WriteByte(':')
			if err := e.write(item); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')

		return nil
	case *value.List:
		return e.writeArray(x.Items)
	case *value.Set:
		return e.writeArray(x.Values())
	case *value.Map:
		e.buf.WriteByte('[')
		i := 0
		for k, item := range x.All() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			i++
			e.buf.WriteByte('[')
			if err := e.write(k); err != nil {
				return err
			}
			e.buf.WriteByte(',')
			if err := e.write(item); err != nil {
				return err
			}
			e.buf.WriteByte(']')
		}
		e.buf.WriteByte(']')

		return nil
	case *value.View:
		items, err := viewElements(x)
		if err != nil {
			return err
		}

		return e.writeArray(items)
	}

	return nil
}

func (e *encoder) writeArray(items []any) error {
	e.buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.write(item); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')

	return nil
}

// viewElements reads the elements of a view as little-endian numbers.
// DataView and the byte kinds yield one number per byte.
func viewElements(v *value.View) ([]any, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	le := endian.GetLittleEndianEngine()
	data := v.Bytes()
	size := v.Kind.ElementSize()
	items := make([]any, 0, v.Length)
	for off := 0; off+size <= len(data); off += size {
		b := data[off : off+size]
		switch v.Kind {
		case value.Int8:
			items = append(items, int64(int8(b[0])))
		case value.Int16:
			items = append(items, int64(int16(le.Uint16(b)))) //nolint:gosec
		case value.Uint16:
			items = append(items, int64(le.Uint16(b)))
		case value.Int32:
			items = append(items, int64(int32(le.Uint32(b)))) //nolint:gosec
		case value.Uint32:
			items = append(items, int64(le.Uint32(b)))
		case value.Float32:
			items = append(items, float64(math.Float32frombits(le.Uint32(b))))
		case value.Float64:
			items = append(items, math.Float64frombits(le.Uint64(b)))
		case value.BigInt64:
			items = append(items, int64(le.Uint64(b))) //nolint:gosec
		case value.BigUint64:
			items = append(items, le.Uint64(b))
		default:
			items = append(items, int64(b[0]))
		}
	}

	return items, nil
}
