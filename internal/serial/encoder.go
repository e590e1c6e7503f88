package serial

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/arloliu/strpack/encoding"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/internal/pool"
	"github.com/arloliu/strpack/value"
)

// MaxDepth bounds the nesting of composites on both sides.
const MaxDepth = 10000

// nativeRef identifies a Go map or slice by its backing storage.
type nativeRef struct {
	kind reflect.Kind
	ptr  uintptr
	n    int
}

// Encoder is the context of one serialization call.
//
// It is not safe for concurrent use and is discarded when the call returns.
type Encoder struct {
	buf    *pool.ByteBuffer
	refs   map[any]uint64
	nextID uint64
	depth  int
}

// Encode serializes v behind the plain prefix.
func Encode(v any) (string, error) {
	return EncodePrefixed(format.PlainPrefix, v)
}

// EncodePrefixed serializes v behind prefix.
//
// Parameters:
//   - prefix: Magic and version written before the payload
//   - v: Value to serialize
//
// Returns:
//   - string: prefix followed by the tagged payload
//   - error: errs.ErrUnsupportedType or errs.ErrInvalidView
func EncodePrefixed(prefix string, v any) (string, error) {
	e := &Encoder{
		buf:  pool.GetPayloadBuffer(),
		refs: make(map[any]uint64),
	}
	defer pool.PutPayloadBuffer(e.buf)

	e.buf.B = append(e.buf.B, prefix...)
	if err := e.visit(v); err != nil {
		return "", err
	}

	return string(e.buf.B), nil
}

func (e *Encoder) tag(t format.Tag) {
	e.buf.B = append(e.buf.B, byte(t))
}

// count writes the short tag with a single digit when n fits, else the long
// tag with a numeral.
func (e *Encoder) count(short, long format.Tag, n int) {
	if n < format.Base {
		e.tag(short)
		e.buf.B = encoding.AppendDigit(e.buf.B, n)

		return
	}
	e.tag(long)
	e.buf.B = encoding.AppendNumeral(e.buf.B, uint64(n)) //nolint:gosec
}

func (e *Encoder) writeString(s string) {
	e.count(format.TagStringShort, format.TagStringLong, len(s))
	e.buf.B = append(e.buf.B, s...)
}

func (e *Encoder) writeInt(neg bool, mag uint64) {
	switch {
	case mag == 0:
		e.tag(format.TagZero)
	case !neg && mag < format.Base:
		e.tag(format.TagIntPos)
		e.buf.B = encoding.AppendDigit(e.buf.B, int(mag))
	case !neg:
		e.tag(format.TagIntPosLarge)
		e.buf.B = encoding.AppendNumeral(e.buf.B, mag)
	case mag < format.Base:
		e.tag(format.TagIntNeg)
		e.buf.B = encoding.AppendDigit(e.buf.B, int(mag))
	default:
		e.tag(format.TagIntNegLarge)
		e.buf.B = encoding.AppendNumeral(e.buf.B, mag)
	}
}

func (e *Encoder) writeSigned(v int64) {
	if v < 0 {
		e.writeInt(true, uint64(-(v+1))+1) //nolint:gosec
		return
	}
	e.writeInt(false, uint64(v))
}

func (e *Encoder) writeFloat(f float64) {
	if neg, mag, ok := integralFloat(f); ok {
		e.writeInt(neg, mag)
		return
	}

	text := formatFloat(f)
	e.tag(format.TagFloat)
	e.buf.B = encoding.AppendNumeral(e.buf.B, uint64(len(text)))
	e.buf.B = append(e.buf.B, text...)
}

// register looks id up for key. When key was seen before it writes a
// back-reference and returns true; otherwise it assigns the next id.
// A nil key always takes a fresh id.
func (e *Encoder) register(key any) bool {
	if key != nil {
		if id, ok := e.refs[key]; ok {
			e.tag(format.TagBackRef)
			e.buf.B = encoding.AppendNumeral(e.buf.B, id)

			return true
		}
		e.refs[key] = e.nextID
	}
	e.nextID++

	return false
}

func (e *Encoder) enter() error {
	e.depth++
	if e.depth > MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", errs.ErrUnsupportedType, MaxDepth)
	}

	return nil
}

func (e *Encoder) leave() {
	e.depth--
}

func (e *Encoder) visit(v any) error {
	switch x := v.(type) {
	case nil:
		e.tag(format.TagNull)
	case bool:
		if x {
			e.tag(format.TagTrue)
		} else {
			e.tag(format.TagFalse)
		}
	case string:
		e.writeString(x)
	case int:
		e.writeSigned(int64(x))
	case int8:
		e.writeSigned(int64(x))
	case int16:
		e.writeSigned(int64(x))
	case int32:
		e.writeSigned(int64(x))
	case int64:
		e.writeSigned(x)
	case uint:
		e.writeInt(false, uint64(x))
	case uint8:
		e.writeInt(false, uint64(x))
	case uint16:
		e.writeInt(false, uint64(x))
	case uint32:
		e.writeInt(false, uint64(x))
	case uint64:
		e.writeInt(false, x)
	case float32:
		e.writeFloat(float64(x))
	case float64:
		e.writeFloat(x)
	default:
		if value.IsUndefined(v) {
			e.tag(format.TagUndefined)
			return nil
		}

		return e.visitComposite(v)
	}

	return nil
}

func (e *Encoder) visitComposite(v any) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	switch x := v.(type) {
	case *value.Record:
		return e.visitRecord(x)
	case *value.List:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}

		return e.visitItems(x.Items)
	case *value.Set:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}
		e.count(format.TagSetShort, format.TagSetLong, x.Len())
		for item := range x.All() {
			if err := e.visit(item); err != nil {
				return err
			}
		}

		return nil
	case *value.Map:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}
		e.count(format.TagMapShort, format.TagMapLong, x.Len())
		for k, val := range x.All() {
			if err := e.visit(k); err != nil {
				return err
			}
			if err := e.visit(val); err != nil {
				return err
			}
		}

		return nil
	case *value.RegExp:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}
		e.tag(format.TagRegExp)
		e.writeString(x.Source)
		e.writeString(x.Flags)

		return nil
	case *value.Date:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}
		e.tag(format.TagDate)
		e.writeSigned(x.UnixMilli)

		return nil
	case *value.Buffer:
		if x == nil || e.register(x) {
			return e.nullIf(x == nil)
		}

		return e.writeBuffer(x.Data)
	case *value.View:
		return e.visitView(x)
	case map[string]any:
		return e.visitNativeRecord(reflect.ValueOf(x))
	case []any:
		if x == nil {
			e.tag(format.TagNull)
			return nil
		}
		key := any(nil)
		if len(x) > 0 {
			key = nativeRef{kind: reflect.Slice, ptr: reflect.ValueOf(x).Pointer(), n: len(x)}
		}
		if e.register(key) {
			return nil
		}

		return e.visitItems(x)
	case []byte:
		e.register(nil)
		return e.writeBuffer(x)
	case time.Time:
		e.register(nil)
		e.tag(format.TagDate)
		e.writeSigned(x.UnixMilli())

		return nil
	}

	return e.visitReflect(v)
}

// nullIf writes null for a typed nil composite pointer.
func (e *Encoder) nullIf(isNil bool) error {
	if isNil {
		e.tag(format.TagNull)
	}

	return nil
}

func (e *Encoder) visitRecord(r *value.Record) error {
	if r == nil || e.register(r) {
		return e.nullIf(r == nil)
	}

	e.count(format.TagRecordShort, format.TagRecordLong, r.Len())
	for k, val := range r.All() {
		e.writeString(k)
		if err := e.visit(val); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) visitItems(items []any) error {
	e.count(format.TagListShort, format.TagListLong, len(items))
	for _, item := range items {
		if err := e.visit(item); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) writeBuffer(data []byte) error {
	if uint64(len(data)) > encoding.MaxBufferLen {
		return fmt.Errorf("%w: buffer of %d bytes", errs.ErrUnsupportedType, len(data))
	}
	e.tag(format.TagBuffer)
	e.buf.B = encoding.AppendBuffer(e.buf.B, data)

	return nil
}

var viewTags = map[value.ViewKind]format.Tag{
	value.Int8:         format.TagInt8,
	value.Uint8:        format.TagUint8,
	value.Uint8Clamped: format.TagUint8Clamped,
	value.Int16:        format.TagInt16,
	value.Uint16:       format.TagUint16,
	value.Int32:        format.TagInt32,
	value.Uint32:       format.TagUint32,
	value.Float32:      format.TagFloat32,
	value.Float64:      format.TagFloat64,
	value.BigInt64:     format.TagBigInt64,
	value.BigUint64:    format.TagBigUint64,
	value.DataView:     format.TagDataView,
}

func (e *Encoder) visitView(v *value.View) error {
	if v == nil {
		e.tag(format.TagNull)
		return nil
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if e.register(v) {
		return nil
	}

	e.tag(viewTags[v.Kind])
	e.buf.B = encoding.AppendNumeral(e.buf.B, uint64(v.Offset)) //nolint:gosec
	e.buf.B = encoding.AppendNumeral(e.buf.B, uint64(v.Length)) //nolint:gosec

	return e.visit(v.Buffer)
}

// visitNativeRecord writes a Go map with string keys as a record, keys sorted.
func (e *Encoder) visitNativeRecord(rv reflect.Value) error {
	if rv.IsNil() {
		e.tag(format.TagNull)
		return nil
	}
	if e.register(nativeRef{kind: reflect.Map, ptr: rv.Pointer()}) {
		return nil
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)

	e.count(format.TagRecordShort, format.TagRecordLong, len(keys))
	for _, k := range keys {
		e.writeString(k)
		if err := e.visit(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()); err != nil {
			return err
		}
	}

	return nil
}

// visitReflect covers named primitive types, typed slices and arrays, and
// maps with string keys.
func (e *Encoder) visitReflect(v any) error {
	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Bool:
		return e.visit(rv.Bool())
	case reflect.String:
		return e.visit(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeSigned(rv.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.writeInt(false, rv.Uint())
		return nil
	case reflect.Float32, reflect.Float64:
		e.writeFloat(rv.Float())
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return e.visitNativeRecord(rv)
		}
	case reflect.Slice:
		if rv.IsNil() {
			e.tag(format.TagNull)
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			e.register(nil)
			return e.writeBuffer(rv.Bytes())
		}

		key := any(nil)
		if rv.Len() > 0 {
			key = nativeRef{kind: reflect.Slice, ptr: rv.Pointer(), n: rv.Len()}
		}
		if e.register(key) {
			return nil
		}

		return e.visitReflectItems(rv)
	case reflect.Array:
		e.register(nil)
		return e.visitReflectItems(rv)
	}

	return fmt.Errorf("%w: %T", errs.ErrUnsupportedType, v)
}

func (e *Encoder) visitReflectItems(rv reflect.Value) error {
	n := rv.Len()
	e.count(format.TagListShort, format.TagListLong, n)
	for i := range n {
		if err := e.visit(rv.Index(i).Interface()); err != nil {
			return err
		}
	}

	return nil
}
