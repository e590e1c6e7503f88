package encoding

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
)

// Reader is a forward-only cursor over an encoded string.
//
// A Reader is owned by a single decoding call and is not safe for concurrent use.
type Reader struct {
	s   string
	pos int
}

// NewReader creates a reader positioned at the start of s.
func NewReader(s string) *Reader {
	return &Reader{s: s}
}

// Pos returns the current offset into the input.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.s) - r.pos
}

// EOF reports whether the whole input has been consumed.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.s)
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return r.errorf("skip %d past end", n)
	}
	r.pos += n

	return nil
}

// ReadByte reads one raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.s) {
		return 0, r.errorf("unexpected end of input")
	}
	c := r.s[r.pos]
	r.pos++

	return c, nil
}

// ReadDigit reads a single alphabet character and returns its digit value.
func (r *Reader) ReadDigit() (int, error) {
	c, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	d := format.DigitOf[c]
	if d == format.NoDigit {
		return 0, r.errorf("invalid digit %q", c)
	}

	return int(d), nil
}

// ReadNumeral reads a separator-terminated numeral.
func (r *Reader) ReadNumeral() (uint64, error) {
	var (
		n         uint64
		scale     uint64 = 1
		saturated bool
		digits    int
	)

	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		if c == format.Separator {
			if digits == 0 {
				return 0, r.errorf("empty numeral")
			}

			return n, nil
		}

		d := format.DigitOf[c]
		if d == format.NoDigit {
			return 0, r.errorf("invalid numeral digit %q", c)
		}
		digits++

		if d == 0 {
			if !saturated {
				saturated = nextScale(&scale)
			}
			continue
		}
		if saturated {
			return 0, r.errorf("numeral overflow")
		}

		hi, term := bits.Mul64(uint64(d), scale)
		var carry uint64
		n, carry = bits.Add64(n, term, 0)
		if hi != 0 || carry != 0 {
			return 0, r.errorf("numeral overflow")
		}
		saturated = nextScale(&scale)
	}
}

// nextScale multiplies scale by the base and reports whether it overflowed.
func nextScale(scale *uint64) bool {
	hi, lo := bits.Mul64(*scale, format.Base)
	*scale = lo

	return hi != 0
}

// ReadSize reads a numeral that must not exceed limit.
func (r *Reader) ReadSize(limit uint64) (int, error) {
	n, err := r.ReadNumeral()
	if err != nil {
		return 0, err
	}
	if n > limit {
		return 0, r.errorf("size %d exceeds limit %d", n, limit)
	}

	return int(n), nil //nolint:gosec
}

// ReadWord5 reads a dense word of exactly WordDigits digits.
func (r *Reader) ReadWord5() (uint32, error) {
	if r.Remaining() < WordDigits {
		return 0, r.errorf("truncated word")
	}

	var (
		v     uint64
		scale uint64 = 1
	)
	for range WordDigits {
		d, err := r.ReadDigit()
		if err != nil {
			return 0, err
		}
		v += uint64(d) * scale
		scale *= format.Base
	}

	if v > math.MaxUint32 {
		return 0, r.errorf("word overflow")
	}

	return uint32(v), nil
}

// ReadString reads n raw bytes.
func (r *Reader) ReadString(n int) (string, error) {
	if n < 0 || n > r.Remaining() {
		return "", r.errorf("string length %d exceeds input", n)
	}
	s := r.s[r.pos : r.pos+n]
	r.pos += n

	return s, nil
}

func (r *Reader) errorf(msg string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", errs.ErrMalformedPayload, r.pos, fmt.Sprintf(msg, args...))
}
