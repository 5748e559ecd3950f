// Package tokenizer splits display strings into indexable words.
//
// A word boundary is emitted on whitespace, on any non-alphanumeric byte, and on
// a lower to upper case transition, so "fooBar-baz qux" yields
// "foo", "Bar", "baz" and "qux". Tokens are substrings of the input, never copies.
package tokenizer

import "iter"

type class uint8

const (
	classOther class = iota
	classLower
	classUpper
	classDigit
	classSpace
)

// classify maps a byte to its character class. Bytes of multi-byte UTF-8
// sequences count as lower case letters so non-latin words stay whole.
func classify(c byte) class {
	switch {
	case c >= 'a' && c <= 'z':
		return classLower
	case c >= 'A' && c <= 'Z':
		return classUpper
	case c >= '0' && c <= '9':
		return classDigit
	case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
		return classSpace
	case c >= 0x80:
		return classLower
	}
	return classOther
}

// Words returns a lazy sequence over the words of text.
// The sequence can be ranged over any number of times.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		prev := classSpace

		for i := 0; i < len(text); i++ {
			cls := classify(text[i])

			switch cls {
			case classSpace, classOther:
				if start >= 0 {
					if !yield(text[start:i]) {
						return
					}
					start = -1
				}
			default:
				if start < 0 {
					start = i
				} else if prev == classLower && cls == classUpper {
					if !yield(text[start:i]) {
						return
					}
					start = i
				}
			}
			prev = cls
		}

		if start >= 0 {
			yield(text[start:])
		}
	}
}

// Tokenize collects Words(text) into a slice.
func Tokenize(text string) []string {
	var out []string
	for w := range Words(text) {
		out = append(out, w)
	}
	return out
}

// Count returns the number of words in text without allocating.
func Count(text string) int {
	n := 0
	for range Words(text) {
		n++
	}
	return n
}
