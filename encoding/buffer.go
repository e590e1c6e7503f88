package encoding

import (
	"math"

	"github.com/arloliu/strpack/endian"
)

// BufferMode selects how the words of a byte buffer are written.
type BufferMode int

const (
	// BufferDense writes every word as exactly WordDigits digits.
	BufferDense BufferMode = 0
	// BufferSparse writes zero words as one digit and others as a sign digit plus a numeral.
	BufferSparse BufferMode = 1
)

func (m BufferMode) String() string {
	switch m {
	case BufferDense:
		return "Dense"
	case BufferSparse:
		return "Sparse"
	default:
		return "Unknown"
	}
}

// Sparse word markers.
const (
	sparseZero     = 0
	sparsePositive = 1
	sparseNegative = 2
)

// MaxBufferLen is the largest byte buffer the format describes.
const MaxBufferLen = math.MaxUint32

var wordEngine = endian.GetLittleEndianEngine()

// WordCount returns the number of 32-bit words covering n bytes.
func WordCount(n int) int {
	return (n + 3) / 4
}

// wordAt returns word i of data, zero-padding a trailing partial word.
func wordAt(data []byte, i int) uint32 {
	off := i * 4
	if off+4 <= len(data) {
		return wordEngine.Uint32(data[off:])
	}

	var tail [4]byte
	copy(tail[:], data[off:])

	return wordEngine.Uint32(tail[:])
}

// TrimmedWords returns the number of words left once the trailing run of
// all-zero words is removed.
func TrimmedWords(data []byte) int {
	words := WordCount(len(data))
	for words > 0 && wordAt(data, words-1) == 0 {
		words--
	}

	return words
}

// sparseWordLen returns the encoded size of w in sparse mode.
func sparseWordLen(w uint32) int {
	if w == 0 {
		return 1
	}

	return 1 + NumeralLen(wordMagnitude(w))
}

func wordMagnitude(w uint32) uint64 {
	v := int64(int32(w)) //nolint:gosec
	if v < 0 {
		return uint64(-v)
	}

	return uint64(v)
}

// ChooseMode picks the shorter encoding for the first words of data.
//
// The sparse estimate is accumulated word by word and the scan stops as soon
// as it exceeds the dense size. Sparse wins only when strictly shorter.
func ChooseMode(data []byte, words int) BufferMode {
	dense := words * WordDigits
	sparse := 0
	for i := 0; i < words; i++ {
		sparse += sparseWordLen(wordAt(data, i))
		if sparse > dense {
			return BufferDense
		}
	}

	if sparse < dense {
		return BufferSparse
	}

	return BufferDense
}

// AppendBuffer appends the encoded form of data, without a type tag, in the
// shorter of the two modes.
func AppendBuffer(dst []byte, data []byte) []byte {
	return AppendBufferMode(dst, data, ChooseMode(data, TrimmedWords(data)))
}

// AppendBufferMode appends the encoded form of data in the given mode.
// Any mode decodes to the same bytes; AppendBuffer picks the shorter one.
func AppendBufferMode(dst []byte, data []byte, mode BufferMode) []byte {
	words := TrimmedWords(data)

	dst = AppendDigit(dst, int(mode))
	dst = AppendNumeral(dst, uint64(len(data)))
	dst = AppendNumeral(dst, uint64(words)) //nolint:gosec

	for i := 0; i < words; i++ {
		w := wordAt(data, i)
		switch {
		case mode == BufferDense:
			dst = AppendWord5(dst, w)
		case w == 0:
			dst = AppendDigit(dst, sparseZero)
		case int32(w) > 0: //nolint:gosec
			dst = AppendDigit(dst, sparsePositive)
			dst = AppendNumeral(dst, uint64(w))
		default:
			dst = AppendDigit(dst, sparseNegative)
			dst = AppendNumeral(dst, wordMagnitude(w))
		}
	}

	return dst
}

// ReadBuffer reads a buffer written by AppendBuffer. Bytes past the encoded
// words are zero.
//
// The declared length is checked against limit before anything is allocated,
// since a few input bytes can declare a buffer of up to 4GiB.
func (r *Reader) ReadBuffer(limit int) ([]byte, error) {
	flag, err := r.ReadDigit()
	if err != nil {
		return nil, err
	}

	mode := BufferMode(flag)
	if mode != BufferDense && mode != BufferSparse {
		return nil, r.errorf("invalid buffer mode %d", flag)
	}

	total, err := r.ReadSize(MaxBufferLen)
	if err != nil {
		return nil, err
	}
	if total > limit {
		return nil, r.errorf("buffer of %d bytes exceeds the decode limit of %d", total, limit)
	}

	words, err := r.ReadSize(uint64(WordCount(total))) //nolint:gosec
	if err != nil {
		return nil, err
	}

	if mode == BufferDense && r.Remaining() < words*WordDigits {
		return nil, r.errorf("truncated dense buffer")
	}
	if mode == BufferSparse && r.Remaining() < words {
		return nil, r.errorf("truncated sparse buffer")
	}

	data := make([]byte, total)
	for i := 0; i < words; i++ {
		var w uint32
		if mode == BufferDense {
			w, err = r.ReadWord5()
		} else {
			w, err = r.readSparseWord()
		}
		if err != nil {
			return nil, err
		}

		if err := r.putWord(data, i, w); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func (r *Reader) readSparseWord() (uint32, error) {
	marker, err := r.ReadDigit()
	if err != nil {
		return 0, err
	}

	switch marker {
	case sparseZero:
		return 0, nil
	case sparsePositive:
		mag, err := r.ReadNumeral()
		if err != nil {
			return 0, err
		}
		if mag == 0 || mag > math.MaxInt32 {
			return 0, r.errorf("sparse word %d out of range", mag)
		}

		return uint32(mag), nil
	case sparseNegative:
		mag, err := r.ReadNumeral()
		if err != nil {
			return 0, err
		}
		if mag == 0 || mag > -math.MinInt32 {
			return 0, r.errorf("sparse word -%d out of range", mag)
		}

		return uint32(int32(-int64(mag))), nil //nolint:gosec
	default:
		return 0, r.errorf("invalid sparse marker %d", marker)
	}
}

// putWord stores word i into data. A trailing partial word must not carry
// bits past the end of data.
func (r *Reader) putWord(data []byte, i int, w uint32) error {
	off := i * 4
	if off+4 <= len(data) {
		wordEngine.PutUint32(data[off:], w)
		return nil
	}

	var tail [4]byte
	wordEngine.PutUint32(tail[:], w)
	n := copy(data[off:], tail[:])
	for _, b := range tail[n:] {
		if b != 0 {
			return r.errorf("partial word overflows buffer")
		}
	}

	return nil
}
