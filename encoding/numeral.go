package encoding

import (
	"github.com/arloliu/strpack/format"
)

// WordDigits is the number of digits a dense 32-bit word occupies.
// 88^5 exceeds 2^32, so five digits hold any uint32.
const WordDigits = 5

// AppendNumeral appends n as a separator-terminated numeral.
func AppendNumeral(dst []byte, n uint64) []byte {
	for {
		dst = append(dst, format.Alphabet[n%format.Base])
		n /= format.Base
		if n == 0 {
			break
		}
	}

	return append(dst, format.Separator)
}

// EncodeNumeral returns n as a separator-terminated numeral.
func EncodeNumeral(n uint64) string {
	return string(AppendNumeral(make([]byte, 0, 4), n))
}

// NumeralLen returns the number of characters AppendNumeral writes for n,
// separator included.
func NumeralLen(n uint64) int {
	size := 2
	for n >= format.Base {
		n /= format.Base
		size++
	}

	return size
}

// AppendDigit appends d, which must be below format.Base, as one character.
func AppendDigit(dst []byte, d int) []byte {
	return append(dst, format.Alphabet[d])
}

// AppendWord5 appends w as exactly WordDigits digits, least significant first.
func AppendWord5(dst []byte, w uint32) []byte {
	v := uint64(w)
	for range WordDigits {
		dst = append(dst, format.Alphabet[v%format.Base])
		v /= format.Base
	}

	return dst
}
