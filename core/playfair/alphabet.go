package playfair

import (
	"fmt"

	"github.com/FocuswithJustin/playfair/core/errors"
)

const (
	// Size is the side length of the cipher matrix.
	Size = 5
	// AlphabetLen is the number of letters in a cipher alphabet.
	AlphabetLen = Size * Size

	superalphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// foldLetter reports whether c is an ASCII letter and returns it upper-cased.
func foldLetter(c byte) (byte, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return c, true
	case c >= 'a' && c <= 'z':
		return c - ('a' - 'A'), true
	}
	return 0, false
}

// Alphabet is an ordered set of 25 distinct upper-case letters: the
// superalphabet A-Z minus exactly one absent letter.
type Alphabet struct {
	letters [AlphabetLen]byte
	member  [26]bool
	absent  byte
}

// NewAlphabet builds an Alphabet from s. Non-letters are ignored and letters
// are upper-cased; anything other than exactly 25 distinct letters is a
// KeyMaterialError.
func NewAlphabet(s string) (Alphabet, error) {
	var a Alphabet
	var seen []byte
	for i := 0; i < len(s); i++ {
		c, ok := foldLetter(s[i])
		if !ok {
			continue
		}
		if a.member[c-'A'] {
			return Alphabet{}, errors.NewKeyMaterial("alphabet", fmt.Sprintf("duplicate letter %q", rune(c)))
		}
		a.member[c-'A'] = true
		seen = append(seen, c)
	}
	if len(seen) != AlphabetLen {
		return Alphabet{}, errors.NewKeyMaterial("alphabet",
			fmt.Sprintf("expected %d distinct letters, got %d", AlphabetLen, len(seen)))
	}
	copy(a.letters[:], seen)
	for i := 0; i < len(superalphabet); i++ {
		if !a.member[i] {
			a.absent = superalphabet[i]
			break
		}
	}
	return a, nil
}

// Contains reports whether the upper-case letter c belongs to the alphabet.
func (a Alphabet) Contains(c byte) bool {
	if c < 'A' || c > 'Z' {
		return false
	}
	return a.member[c-'A']
}

// Absent returns the superalphabet letter missing from a, or 0 for the zero Alphabet.
func (a Alphabet) Absent() byte { return a.absent }

// Letters returns the alphabet letters in their original order.
func (a Alphabet) Letters() []byte {
	if a.absent == 0 {
		return nil
	}
	out := make([]byte, AlphabetLen)
	copy(out, a.letters[:])
	return out
}

func (a Alphabet) String() string { return string(a.Letters()) }
