package playfair

import (
	"fmt"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// KeyMaterial is the validated, immutable input of a cipher run.
type KeyMaterial struct {
	alphabet    Alphabet
	replacement byte
	filler      byte
	key         string
}

// NewKeyMaterial validates the alphabet and checks that the replacement and
// filler letters are alphabet members. Both letters are case-folded. The key
// is kept verbatim; only its letters take part in matrix construction.
func NewKeyMaterial(alphabet string, replacement, filler byte, key string) (KeyMaterial, error) {
	a, err := NewAlphabet(alphabet)
	if err != nil {
		return KeyMaterial{}, err
	}
	r, err := memberLetter(a, "replacement", replacement)
	if err != nil {
		return KeyMaterial{}, err
	}
	f, err := memberLetter(a, "filler", filler)
	if err != nil {
		return KeyMaterial{}, err
	}
	return KeyMaterial{alphabet: a, replacement: r, filler: f, key: key}, nil
}

func memberLetter(a Alphabet, field string, c byte) (byte, error) {
	u, ok := foldLetter(c)
	if !ok {
		return 0, errors.NewKeyMaterial(field, fmt.Sprintf("%q is not a letter", rune(c)))
	}
	if !a.Contains(u) {
		return 0, errors.NewKeyMaterial(field, fmt.Sprintf("%q is not in the alphabet", rune(u)))
	}
	return u, nil
}

// Alphabet returns the 25-letter cipher alphabet.
func (k KeyMaterial) Alphabet() Alphabet { return k.alphabet }

// Replacement returns the letter that stands in for the absent letter.
func (k KeyMaterial) Replacement() byte { return k.replacement }

// Filler returns the letter used to split doubles and pad odd lengths.
func (k KeyMaterial) Filler() byte { return k.filler }

// Key returns the raw key string.
func (k KeyMaterial) Key() string { return k.key }

// Absent returns the one letter of A-Z missing from the alphabet.
func (k KeyMaterial) Absent() byte { return k.alphabet.absent }

// substitute maps the absent letter to the replacement letter.
func (k KeyMaterial) substitute(c byte) byte {
	if c == k.alphabet.absent {
		return k.replacement
	}
	return c
}
