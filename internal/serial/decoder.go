package serial

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/strpack/encoding"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/value"
)

// Decoder is the context of one deserialization call.
//
// It is not safe for concurrent use and is discarded when the call returns.
type Decoder struct {
	r     *encoding.Reader
	refs  []any
	depth int
	// budget is what is left of the decoded-bytes limit of the call.
	budget int
}

// DefaultMaxDecodedSize bounds the total size of the byte buffers one call
// may decode.
const DefaultMaxDecodedSize = 256 << 20

// Decode deserializes a string carrying the plain prefix.
func Decode(s string) (any, error) {
	return DecodePrefixed(format.PlainPrefix, s)
}

// DecodeWithLimit is DecodePrefixed with a custom bound on the total size of
// the decoded byte buffers.
func DecodeWithLimit(prefix, s string, maxDecoded int) (any, error) {
	return decodePrefixed(prefix, s, maxDecoded)
}

// DecodePrefixed deserializes s, which must start with prefix and hold
// exactly one value after it.
//
// Parameters:
//   - prefix: Expected magic and version
//   - s: Serialized string
//
// Returns:
//   - any: Decoded value
//   - error: errs.ErrUnrecognizedFormat when the prefix is missing,
//     errs.ErrMalformedPayload for any corruption of the payload
func DecodePrefixed(prefix, s string) (any, error) {
	return decodePrefixed(prefix, s, DefaultMaxDecodedSize)
}

func decodePrefixed(prefix, s string, maxDecoded int) (any, error) {
	if !strings.HasPrefix(s, prefix) {
		return nil, errs.ErrUnrecognizedFormat
	}

	d := &Decoder{r: encoding.NewReader(s), budget: maxDecoded}
	if err := d.r.Skip(len(prefix)); err != nil {
		return nil, err
	}

	v, err := d.read()
	if err != nil {
		return nil, err
	}
	if !d.r.EOF() {
		return nil, fmt.Errorf("%w: %d trailing bytes at offset %d",
			errs.ErrMalformedPayload, d.r.Remaining(), d.r.Pos())
	}

	return v, nil
}

func (d *Decoder) malformed(msg string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", errs.ErrMalformedPayload, d.r.Pos(), fmt.Sprintf(msg, args...))
}

// count reads a single digit for a short tag or a numeral for a long tag.
// Every child takes at least one byte, so counts above the remaining input
// are rejected before anything is allocated.
func (d *Decoder) count(long bool) (int, error) {
	if !long {
		return d.r.ReadDigit()
	}

	return d.r.ReadSize(uint64(d.r.Remaining())) //nolint:gosec
}

func (d *Decoder) add(v any) {
	d.refs = append(d.refs, v)
}

func (d *Decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return d.malformed("nesting deeper than %d", MaxDepth)
	}

	return nil
}

func (d *Decoder) leave() {
	d.depth--
}

func (d *Decoder) read() (any, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch t := format.Tag(c); t {
	case format.TagNull:
		return nil, nil
	case format.TagUndefined:
		return value.Undefined, nil
	case format.TagTrue:
		return true, nil
	case format.TagFalse:
		return false, nil
	case format.TagZero:
		return int64(0), nil
	case format.TagIntPos, format.TagIntNeg:
		digit, err := d.r.ReadDigit()
		if err != nil {
			return nil, err
		}
		if t == format.TagIntNeg {
			return -int64(digit), nil
		}

		return int64(digit), nil
	case format.TagIntPosLarge:
		mag, err := d.r.ReadNumeral()
		if err != nil {
			return nil, err
		}
		if mag > math.MaxInt64 {
			return mag, nil
		}

		return int64(mag), nil
	case format.TagIntNegLarge:
		mag, err := d.r.ReadNumeral()
		if err != nil {
			return nil, err
		}
		if mag > 1<<63 {
			return nil, d.malformed("negative integer -%d out of range", mag)
		}

		return -int64(mag-1) - 1, nil //nolint:gosec
	case format.TagFloat:
		return d.readFloat()
	case format.TagStringShort, format.TagStringLong:
		return d.readString(t == format.TagStringLong)
	case format.TagBackRef:
		return d.readBackRef()
	}

	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	return d.readComposite(format.Tag(c))
}

func (d *Decoder) readFloat() (any, error) {
	n, err := d.r.ReadSize(uint64(d.r.Remaining())) //nolint:gosec
	if err != nil {
		return nil, err
	}
	text, err := d.r.ReadString(n)
	if err != nil {
		return nil, err
	}

	f, err := parseFloat(text)
	if err != nil {
		return nil, d.malformed("invalid number %q", text)
	}

	return f, nil
}

func (d *Decoder) readString(long bool) (string, error) {
	n, err := d.count(long)
	if err != nil {
		return "", err
	}

	return d.r.ReadString(n)
}

// readTaggedString reads a child that must be a string.
func (d *Decoder) readTaggedString() (string, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}

	switch format.Tag(c) {
	case format.TagStringShort:
		return d.readString(false)
	case format.TagStringLong:
		return d.readString(true)
	default:
		return "", d.malformed("expected string, found tag %q", c)
	}
}

func (d *Decoder) readBackRef() (any, error) {
	id, err := d.r.ReadNumeral()
	if err != nil {
		return nil, err
	}
	if id >= uint64(len(d.refs)) {
		return nil, d.malformed("back-reference %d of %d", id, len(d.refs))
	}

	return d.refs[id], nil
}

func (d *Decoder) readComposite(t format.Tag) (any, error) {
	switch t {
	case format.TagRecordShort, format.TagRecordLong:
		return d.readRecord(t == format.TagRecordLong)
	case format.TagListShort, format.TagListLong:
		return d.readList(t == format.TagListLong)
	case format.TagSetShort, format.TagSetLong:
		return d.readSet(t == format.TagSetLong)
	case format.TagMapShort, format.TagMapLong:
		return d.readMap(t == format.TagMapLong)
	case format.TagRegExp:
		re := &value.RegExp{}
		d.add(re)

		var err error
		if re.Source, err = d.readTaggedString(); err != nil {
			return nil, err
		}
		if re.Flags, err = d.readTaggedString(); err != nil {
			return nil, err
		}

		return re, nil
	case format.TagDate:
		return d.readDate()
	case format.TagBuffer:
		buf := &value.Buffer{}
		d.add(buf)

		data, err := d.r.ReadBuffer(d.budget)
		if err != nil {
			return nil, err
		}
		d.budget -= len(data)
		buf.Data = data

		return buf, nil
	}

	if kind, ok := viewKinds[t]; ok {
		return d.readView(kind)
	}

	return nil, d.malformed("unknown tag %q", byte(t))
}

func (d *Decoder) readRecord(long bool) (any, error) {
	n, err := d.count(long)
	if err != nil {
		return nil, err
	}

	rec := value.NewRecord()
	d.add(rec)

	for range n {
		key, err := d.readTaggedString()
		if err != nil {
			return nil, err
		}
		v, err := d.read()
		if err != nil {
			return nil, err
		}
		rec.Set(key, v)
	}

	return rec, nil
}

func (d *Decoder) readList(long bool) (any, error) {
	n, err := d.count(long)
	if err != nil {
		return nil, err
	}

	list := &value.List{}
	if n > 0 {
		list.Items = make([]any, 0, n)
	}
	d.add(list)

	for range n {
		v, err := d.read()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, v)
	}

	return list, nil
}

func (d *Decoder) readSet(long bool) (any, error) {
	n, err := d.count(long)
	if err != nil {
		return nil, err
	}

	set := value.NewSet()
	d.add(set)

	for range n {
		v, err := d.read()
		if err != nil {
			return nil, err
		}
		set.Add(v)
	}

	return set, nil
}

func (d *Decoder) readMap(long bool) (any, error) {
	n, err := d.count(long)
	if err != nil {
		return nil, err
	}

	m := value.NewMap()
	d.add(m)

	for range n {
		k, err := d.read()
		if err != nil {
			return nil, err
		}
		v, err := d.read()
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}

	return m, nil
}

func (d *Decoder) readDate() (any, error) {
	date := &value.Date{}
	d.add(date)

	v, err := d.read()
	if err != nil {
		return nil, err
	}

	switch ms := v.(type) {
	case int64:
		date.UnixMilli = ms
	case float64:
		if ms != math.Trunc(ms) || math.Abs(ms) > maxSafeInteger {
			return nil, d.malformed("invalid date timestamp %v", ms)
		}
		date.UnixMilli = int64(ms)
	default:
		return nil, d.malformed("invalid date timestamp of type %T", v)
	}

	return date, nil
}

var viewKinds = func() map[format.Tag]value.ViewKind {
	m := make(map[format.Tag]value.ViewKind, len(viewTags))
	for kind, tag := range viewTags {
		m[tag] = kind
	}

	return m
}()

func (d *Decoder) readView(kind value.ViewKind) (any, error) {
	view := &value.View{Kind: kind}
	d.add(view)

	offset, err := d.r.ReadSize(encoding.MaxBufferLen)
	if err != nil {
		return nil, err
	}
	length, err := d.r.ReadSize(encoding.MaxBufferLen)
	if err != nil {
		return nil, err
	}

	child, err := d.read()
	if err != nil {
		return nil, err
	}
	buf, ok := child.(*value.Buffer)
	if !ok {
		return nil, d.malformed("%s backed by %T", kind, child)
	}

	view.Buffer = buf
	view.Offset = offset
	view.Length = length
	if err := view.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)
	}

	return view, nil
}
