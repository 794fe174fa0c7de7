package playfair

import (
	"bytes"
	"context"
	"io"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// DigraphWriter receives transformed digraphs in input order.
type DigraphWriter interface {
	WriteDigraphs(ds []Digraph) error
}

// Stats summarizes one Process call.
type Stats struct {
	Chunks   int
	Bytes    int64
	Letters  int64
	Digraphs int64
}

// Cipher binds key material, its matrix and a direction.
type Cipher struct {
	km      KeyMaterial
	matrix  *Matrix
	prep    *Preparer
	codec   *Codec
	dir     Direction
	workers int
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithWorkers lets large chunks be substituted by up to n goroutines.
func WithWorkers(n int) Option {
	return func(c *Cipher) { c.workers = n }
}

// New builds the matrix for km and returns a Cipher running in dir.
func New(km KeyMaterial, dir Direction, opts ...Option) (*Cipher, error) {
	if !dir.valid() {
		return nil, errors.NewUnsupported("direction", dir.String())
	}
	m, err := BuildMatrix(km)
	if err != nil {
		return nil, err
	}
	c := &Cipher{
		km:     km,
		matrix: m,
		prep:   NewPreparer(km),
		codec:  NewCodec(m),
		dir:    dir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// KeyMaterial returns the key material the cipher was built from.
func (c *Cipher) KeyMaterial() KeyMaterial { return c.km }

// Matrix returns the cipher matrix.
func (c *Cipher) Matrix() *Matrix { return c.matrix }

// Direction returns the configured direction.
func (c *Cipher) Direction() Direction { return c.dir }

// TransformChunk prepares raw and substitutes the resulting digraphs. la is
// the cursor over the rest of the input and may be advanced by one letter.
func (c *Cipher) TransformChunk(raw []byte, la Lookahead) ([]Digraph, error) {
	ds, _, err := c.transformChunk(context.Background(), raw, la)
	return ds, err
}

func (c *Cipher) transformChunk(ctx context.Context, raw []byte, la Lookahead) ([]Digraph, int, error) {
	ds, n, err := c.prep.Prepare(raw, la)
	if err != nil {
		return nil, n, err
	}
	out, err := c.codec.TransformParallel(ctx, ds, c.dir, c.workers)
	return out, n, err
}

// Process drives s to exhaustion, writing every chunk's digraphs to w before
// reading the next. Input without a single letter is an EmptyInputError.
func (c *Cipher) Process(ctx context.Context, s *Stream, w DigraphWriter) (Stats, error) {
	var st Stats
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, errors.NewIO("read", "", err)
		}
		ds, n, err := c.transformChunk(ctx, chunk, s)
		if err != nil {
			return st, err
		}
		st.Chunks++
		st.Letters += int64(n)
		st.Digraphs += int64(len(ds))
		if len(ds) == 0 {
			continue
		}
		if err := w.WriteDigraphs(ds); err != nil {
			return st, errors.NewIO("write", "", err)
		}
	}
	st.Bytes = s.Offset()
	if st.Letters == 0 {
		return st, errors.NewEmptyInput("")
	}
	return st, nil
}

// TransformString runs the whole of text through the cipher in one chunk and
// returns the output letters without separators.
func (c *Cipher) TransformString(text string) (string, error) {
	var out collector
	if _, err := c.Process(context.Background(), NewStream(bytes.NewReader([]byte(text)), len(text)+1), &out); err != nil {
		return "", err
	}
	return Join(out, ""), nil
}

type collector []Digraph

func (c *collector) WriteDigraphs(ds []Digraph) error {
	*c = append(*c, ds...)
	return nil
}
