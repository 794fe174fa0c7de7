package playfair

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// Direction selects encoding or decoding.
type Direction int

const (
	Encode Direction = iota
	Decode
)

// ParseDirection accepts "encode" or "decode" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encode":
		return Encode, nil
	case "decode":
		return Decode, nil
	}
	return 0, errors.NewUnsupported("direction", s)
}

func (d Direction) String() string {
	switch d {
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	}
	return "unknown"
}

func (d Direction) valid() bool { return d == Encode || d == Decode }

// step is the row/column shift for the same-row and same-column rules.
func (d Direction) step() int {
	if d == Decode {
		return -1
	}
	return 1
}

// Digraph is an ordered letter pair.
type Digraph [2]byte

func (d Digraph) String() string { return string(d[:]) }

// Join renders digraphs separated by sep.
func Join(ds []Digraph, sep string) string {
	var b strings.Builder
	b.Grow(len(ds) * (2 + len(sep)))
	for i, d := range ds {
		if i > 0 {
			b.WriteString(sep)
		}
		b.Write(d[:])
	}
	return b.String()
}

// parallelMin is the smallest batch TransformParallel splits across workers.
const parallelMin = 4096

// Codec applies the Playfair substitution rules against a Matrix.
type Codec struct {
	m *Matrix
}

// NewCodec returns a Codec reading m.
func NewCodec(m *Matrix) *Codec {
	return &Codec{m: m}
}

// Transform substitutes one digraph. Same row shifts right (encode) or left
// (decode); same column shifts down or up; otherwise each letter takes the
// other's column. Indices wrap modulo Size.
func (c *Codec) Transform(d Digraph, dir Direction) (Digraph, error) {
	if !dir.valid() {
		return Digraph{}, errors.NewUnsupported("direction", dir.String())
	}
	p, err := c.m.Locate(d[0])
	if err != nil {
		return Digraph{}, err
	}
	q, err := c.m.Locate(d[1])
	if err != nil {
		return Digraph{}, err
	}

	step := dir.step()
	switch {
	case p.Row == q.Row:
		return Digraph{c.m.At(p.Row, p.Col+step), c.m.At(q.Row, q.Col+step)}, nil
	case p.Col == q.Col:
		return Digraph{c.m.At(p.Row+step, p.Col), c.m.At(q.Row+step, q.Col)}, nil
	default:
		return Digraph{c.m.At(p.Row, q.Col), c.m.At(q.Row, p.Col)}, nil
	}
}

// TransformAll substitutes ds in order into a new slice.
func (c *Codec) TransformAll(ds []Digraph, dir Direction) ([]Digraph, error) {
	out := make([]Digraph, len(ds))
	if err := c.transformInto(out, ds, dir); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) transformInto(dst, src []Digraph, dir Direction) error {
	for i, d := range src {
		t, err := c.Transform(d, dir)
		if err != nil {
			return err
		}
		dst[i] = t
	}
	return nil
}

// TransformParallel produces the same result as TransformAll, splitting ds
// into contiguous ranges handled by up to workers goroutines. Small inputs
// and workers <= 1 run inline.
func (c *Codec) TransformParallel(ctx context.Context, ds []Digraph, dir Direction, workers int) ([]Digraph, error) {
	if workers <= 1 || len(ds) < parallelMin {
		return c.TransformAll(ds, dir)
	}

	out := make([]Digraph, len(ds))
	span := (len(ds) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(ds); lo += span {
		hi := min(lo+span, len(ds))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return c.transformInto(out[lo:hi], ds[lo:hi], dir)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
