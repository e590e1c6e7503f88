// Package format defines the strpack wire constants: the safe alphabet, the
// separator, the type tags and the magic prefixes.
//
// A serialized string has the layout
//
//	<magic><version numeral><tagged payload>
//
// where the version numeral already ends with Separator. Every character the
// encoder emits outside of raw string content comes from Alphabet or is the
// Separator, so the output is printable and needs no escaping inside JSON or HTML.
package format

// Base is the number of characters in the safe alphabet.
const Base = 88

// Separator terminates every numeral. It is never part of the alphabet.
const Separator byte = ','

// excluded lists the printable ASCII characters that are not part of the alphabet.
const excluded = "\"&,<>\\"

// NoDigit marks a byte that is not an alphabet character in DigitOf.
const NoDigit = 0xFF

// Alphabet maps a numeral digit value to its character, DigitOf maps a
// character back to its digit value or NoDigit.
var Alphabet, DigitOf = buildAlphabet()

func buildAlphabet() ([Base]byte, [256]byte) {
	var alphabet [Base]byte
	var digitOf [256]byte
	for i := range digitOf {
		digitOf[i] = NoDigit
	}

	n := 0
	for c := byte(0x21); c <= 0x7E; c++ {
		if isExcluded(c) {
			continue
		}
		alphabet[n] = c
		digitOf[c] = byte(n)
		n++
	}

	if n != Base {
		panic("format: alphabet size mismatch")
	}

	return alphabet, digitOf
}

func isExcluded(c byte) bool {
	for i := 0; i < len(excluded); i++ {
		if excluded[i] == c {
			return true
		}
	}

	return false
}

// IsDigit reports whether c belongs to the safe alphabet.
func IsDigit(c byte) bool {
	return DigitOf[c] != NoDigit
}
