package playfair

import (
	"github.com/FocuswithJustin/playfair/core/errors"
)

// Session transforms text that arrives in pieces without a way to peek
// ahead, such as network messages. An unpaired trailing letter is held back
// until the next piece (or Close) decides its partner by the same rule a
// Stream lookahead applies, so output matches Process over the concatenated
// text.
type Session struct {
	c          *Cipher
	pending    byte
	hasPending bool
	letters    int64
	closed     bool
}

// NewSession starts a push-mode session. Sessions are not safe for
// concurrent use; the Cipher may be shared between sessions.
func (c *Cipher) NewSession() *Session {
	return &Session{c: c}
}

// Push transforms every digraph of raw that can already be completed.
func (s *Session) Push(raw []byte) ([]Digraph, error) {
	if s.closed {
		return nil, errors.NewValidation("session", "push after close")
	}
	letters := s.c.prep.Normalize(raw)
	s.letters += int64(len(letters))
	if len(letters) == 0 {
		return nil, nil
	}

	var seq []byte
	if s.hasPending {
		s.hasPending = false
		if letters[0] != s.pending {
			seq = append(seq, s.pending, letters[0])
			letters = letters[1:]
		} else {
			seq = append(seq, s.pending, s.c.km.filler)
		}
	}
	seq = append(seq, s.c.prep.Split(letters)...)
	if len(seq)%2 == 1 {
		s.pending = seq[len(seq)-1]
		s.hasPending = true
		seq = seq[:len(seq)-1]
	}
	return s.c.codec.TransformAll(pairs(seq), s.c.dir)
}

// Close pads a held letter with the filler and ends the session. A session
// that never saw a letter is an EmptyInputError.
func (s *Session) Close() ([]Digraph, error) {
	if s.closed {
		return nil, nil
	}
	s.closed = true
	if s.letters == 0 {
		return nil, errors.NewEmptyInput("")
	}
	if !s.hasPending {
		return nil, nil
	}
	s.hasPending = false
	return s.c.codec.TransformAll([]Digraph{{s.pending, s.c.km.filler}}, s.c.dir)
}

// Letters is the number of source letters pushed so far.
func (s *Session) Letters() int64 { return s.letters }
