package value

import (
	"fmt"

	"github.com/arloliu/strpack/errs"
)

// Buffer is a raw byte buffer. Several views may share one buffer.
type Buffer struct {
	Data []byte
}

// NewBuffer creates a zero-filled buffer of n bytes.
func NewBuffer(n int) *Buffer {
	return &Buffer{Data: make([]byte, n)}
}

// BufferOf wraps data without copying it.
func BufferOf(data []byte) *Buffer {
	return &Buffer{Data: data}
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	return len(b.Data)
}

// ViewKind is the element type of a typed view.
type ViewKind uint8

const (
	Int8 ViewKind = iota + 1
	Uint8
	Uint8Clamped
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
	BigInt64
	BigUint64
	DataView
)

// ViewKinds lists every view kind.
var ViewKinds = []ViewKind{
	Int8, Uint8, Uint8Clamped, Int16, Uint16, Int32, Uint32,
	Float32, Float64, BigInt64, BigUint64, DataView,
}

// ElementSize returns the size of one element in bytes; DataView counts bytes.
func (k ViewKind) ElementSize() int {
	switch k {
	case Int8, Uint8, Uint8Clamped, DataView:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64, BigInt64, BigUint64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether k is a known kind.
func (k ViewKind) Valid() bool {
	return k.ElementSize() > 0
}

func (k ViewKind) String() string {
	switch k {
	case Int8:
		return "Int8Array"
	case Uint8:
		return "Uint8Array"
	case Uint8Clamped:
		return "Uint8ClampedArray"
	case Int16:
		return "Int16Array"
	case Uint16:
		return "Uint16Array"
	case Int32:
		return "Int32Array"
	case Uint32:
		return "Uint32Array"
	case Float32:
		return "Float32Array"
	case Float64:
		return "Float64Array"
	case BigInt64:
		return "BigInt64Array"
	case BigUint64:
		return "BigUint64Array"
	case DataView:
		return "DataView"
	default:
		return "Unknown"
	}
}

// View is a typed window onto a Buffer: Length elements of Kind starting at
// byte Offset.
type View struct {
	Kind   ViewKind
	Buffer *Buffer
	Offset int
	Length int
}

// NewView creates a view and checks that it fits inside buf.
func NewView(kind ViewKind, buf *Buffer, offset, length int) (*View, error) {
	v := &View{Kind: kind, Buffer: buf, Offset: offset, Length: length}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

// ByteLength returns the size of the window in bytes.
func (v *View) ByteLength() int {
	return v.Length * v.Kind.ElementSize()
}

// Validate checks the kind and the window bounds.
func (v *View) Validate() error {
	if !v.Kind.Valid() {
		return fmt.Errorf("%w: unknown view kind %d", errs.ErrInvalidView, v.Kind)
	}
	if v.Buffer == nil {
		return fmt.Errorf("%w: %s has no buffer", errs.ErrInvalidView, v.Kind)
	}
	if v.Offset < 0 || v.Length < 0 {
		return fmt.Errorf("%w: negative offset or length", errs.ErrInvalidView)
	}
	if v.Offset%v.Kind.ElementSize() != 0 {
		return fmt.Errorf("%w: offset %d not aligned to %s", errs.ErrInvalidView, v.Offset, v.Kind)
	}
	if v.Offset+v.ByteLength() > v.Buffer.Len() {
		return fmt.Errorf("%w: %s [%d,+%d) exceeds %d bytes",
			errs.ErrInvalidView, v.Kind, v.Offset, v.ByteLength(), v.Buffer.Len())
	}

	return nil
}

// Bytes returns the window as a slice of the backing buffer.
func (v *View) Bytes() []byte {
	return v.Buffer.Data[v.Offset : v.Offset+v.ByteLength()]
}
