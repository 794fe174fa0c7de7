package playfair

import (
	"bufio"
	"errors"
	"io"
)

// DefaultChunkSize matches the read buffer of the classic command-line tool.
const DefaultChunkSize = 500000

var errNoPeek = errors.New("playfair: consume without a peeked letter")

// Stream hands out a reader in chunks of at most chunkSize bytes and is the
// Lookahead for those chunks. It is owned by a single goroutine.
type Stream struct {
	r      *bufio.Reader
	buf    []byte
	offset int64
	peeked bool
}

// NewStream wraps r. A chunkSize <= 0 selects DefaultChunkSize.
func NewStream(r io.Reader, chunkSize int) *Stream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Stream{
		r:   bufio.NewReaderSize(r, min(chunkSize, 64*1024)),
		buf: make([]byte, chunkSize),
	}
}

// Next returns the next chunk, or io.EOF when the reader is exhausted. The
// slice is only valid until the following call.
func (s *Stream) Next() ([]byte, error) {
	s.peeked = false
	n, err := io.ReadFull(s.r, s.buf)
	s.offset += int64(n)
	switch {
	case err == nil, err == io.ErrUnexpectedEOF && n > 0:
		return s.buf[:n], nil
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		return nil, io.EOF
	default:
		return nil, err
	}
}

// PeekLetter implements Lookahead.
func (s *Stream) PeekLetter() (byte, bool, error) {
	for {
		b, err := s.r.Peek(1)
		if len(b) == 0 {
			if err == io.EOF {
				return 0, false, nil
			}
			return 0, false, err
		}
		if c, ok := foldLetter(b[0]); ok {
			s.peeked = true
			return c, true, nil
		}
		// Non-letters would be dropped by the next chunk anyway.
		if _, err := s.r.Discard(1); err != nil {
			return 0, false, err
		}
		s.offset++
	}
}

// ConsumeLetter implements Lookahead.
func (s *Stream) ConsumeLetter() error {
	if !s.peeked {
		return errNoPeek
	}
	s.peeked = false
	if _, err := s.r.Discard(1); err != nil {
		return err
	}
	s.offset++
	return nil
}

// Offset is the number of source bytes consumed so far.
func (s *Stream) Offset() int64 { return s.offset }
