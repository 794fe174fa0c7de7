package playfair

import (
	"github.com/FocuswithJustin/playfair/core/errors"
)

// Lookahead is the read cursor over the unprocessed remainder of the input.
// A Preparer uses it only when a chunk ends on an unpaired letter.
type Lookahead interface {
	// PeekLetter returns the next letter of the remainder, upper-cased,
	// discarding any non-letters in front of it. ok is false once no letter
	// is left anywhere in the input.
	PeekLetter() (letter byte, ok bool, err error)

	// ConsumeLetter moves the cursor past the letter returned by the last
	// PeekLetter, so the next chunk starts after it.
	ConsumeLetter() error
}

type endOfInput struct{}

func (endOfInput) PeekLetter() (byte, bool, error) { return 0, false, nil }
func (endOfInput) ConsumeLetter() error             { return errors.NewValidation("lookahead", "nothing to consume") }

// EndOfInput is a Lookahead over an exhausted source, for text handled in a
// single chunk.
var EndOfInput Lookahead = endOfInput{}

// Preparer turns raw text into digraphs ready for a Codec.
type Preparer struct {
	km KeyMaterial
}

// NewPreparer returns a Preparer for km.
func NewPreparer(km KeyMaterial) *Preparer {
	return &Preparer{km: km}
}

// Normalize keeps the letters of raw, upper-cased, with the absent letter
// replaced by the replacement letter.
func (p *Preparer) Normalize(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if c, ok := foldLetter(b); ok {
			out = append(out, p.km.substitute(c))
		}
	}
	return out
}

// Split pairs letters left to right. When the two letters of a prospective
// pair are equal the filler goes between them and pairing resumes at the
// second letter. Earlier output is never revisited. An odd result leaves the
// last letter unpaired.
func (p *Preparer) Split(letters []byte) []byte {
	out := make([]byte, 0, len(letters)+len(letters)/2+1)
	for i := 0; i < len(letters); {
		a := letters[i]
		if i+1 == len(letters) {
			out = append(out, a)
			break
		}
		if b := letters[i+1]; b != a {
			out = append(out, a, b)
			i += 2
		} else {
			out = append(out, a, p.km.filler)
			i++
		}
	}
	return out
}

// Prepare normalizes and splits one chunk, then completes a trailing unpaired
// letter: with the filler at end of input, with the next letter of la when it
// differs (consuming it), or with the filler when it repeats the trailing
// letter (leaving it for the next chunk). It also returns how many source
// letters were used, including one consumed through la.
func (p *Preparer) Prepare(raw []byte, la Lookahead) ([]Digraph, int, error) {
	letters := p.Normalize(raw)
	used := len(letters)
	seq := p.Split(letters)
	if len(seq)%2 == 1 {
		partner, consumed, err := p.partner(seq[len(seq)-1], la)
		if err != nil {
			return nil, used, err
		}
		if consumed {
			used++
		}
		seq = append(seq, partner)
	}
	return pairs(seq), used, nil
}

func (p *Preparer) partner(last byte, la Lookahead) (byte, bool, error) {
	if la == nil {
		la = EndOfInput
	}
	next, ok, err := la.PeekLetter()
	if err != nil {
		return 0, false, errors.NewIO("peek", "", err)
	}
	if !ok {
		return p.km.filler, false, nil
	}
	next = p.km.substitute(next)
	if next == last {
		return p.km.filler, false, nil
	}
	if err := la.ConsumeLetter(); err != nil {
		return 0, false, errors.NewIO("consume", "", err)
	}
	return next, true, nil
}

func pairs(seq []byte) []Digraph {
	ds := make([]Digraph, len(seq)/2)
	for i := range ds {
		ds[i] = Digraph{seq[2*i], seq[2*i+1]}
	}
	return ds
}
