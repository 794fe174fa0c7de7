package textio

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/playfair/core/digest"
	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/playfair"
)

// Sink formats digraphs as text: one space between digraphs, or a line break
// after every group of Group digraphs when Group > 0. The separator state
// carries over between WriteDigraphs calls so chunk boundaries are invisible
// in the output.
type Sink struct {
	w     *bufio.Writer
	group int
	count int64
}

// NewSink writes to w. Call Flush when done.
func NewSink(w io.Writer, group int) *Sink {
	return &Sink{w: bufio.NewWriter(w), group: group}
}

// WriteDigraphs implements playfair.DigraphWriter.
func (s *Sink) WriteDigraphs(ds []playfair.Digraph) error {
	for _, d := range ds {
		if s.count > 0 {
			sep := byte(' ')
			if s.group > 0 && s.count%int64(s.group) == 0 {
				sep = '\n'
			}
			if err := s.w.WriteByte(sep); err != nil {
				return err
			}
		}
		if _, err := s.w.Write(d[:]); err != nil {
			return err
		}
		s.count++
	}
	return nil
}

// Count is the number of digraphs written.
func (s *Sink) Count() int64 { return s.count }

// Flush ends the text with a line break, if anything was written, and
// flushes buffered output.
func (s *Sink) Flush() error {
	if s.count > 0 {
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

// Injectable functions for testing
var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
	osRemove     = os.Remove
)

// Output is a file being written. Nothing appears at Path until Commit;
// Abort discards the partial file.
type Output struct {
	Path string
	*Sink

	tmp    *os.File
	zw     io.WriteCloser
	hasher *digest.Hasher
	done   bool
}

// CreateOutput starts writing path through the given compression.
func CreateOutput(path string, c Compression, group int) (*Output, error) {
	tmp, err := osCreateTemp(filepath.Dir(path), ".playfair-*")
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}
	hasher := digest.NewHasher()
	zw, err := compress(io.MultiWriter(tmp, hasher), c)
	if err != nil {
		tmp.Close()
		osRemove(tmp.Name())
		return nil, err
	}
	return &Output{
		Path:   path,
		Sink:   NewSink(zw, group),
		tmp:    tmp,
		zw:     zw,
		hasher: hasher,
	}, nil
}

// Commit finishes the file, moves it into place and returns the digest of
// the bytes on disk.
func (o *Output) Commit() (digest.Result, error) {
	if o.done {
		return digest.Result{}, errors.NewValidation("output", "already finished")
	}
	o.done = true
	if err := o.Sink.Flush(); err != nil {
		o.discard()
		return digest.Result{}, errors.NewIO("write", o.Path, err)
	}
	if err := o.zw.Close(); err != nil {
		o.discard()
		return digest.Result{}, errors.NewIO("write", o.Path, err)
	}
	if err := o.tmp.Close(); err != nil {
		osRemove(o.tmp.Name())
		return digest.Result{}, errors.NewIO("close", o.Path, err)
	}
	if err := osRename(o.tmp.Name(), o.Path); err != nil {
		osRemove(o.tmp.Name())
		return digest.Result{}, errors.NewIO("rename", o.Path, err)
	}
	return o.hasher.Result(), nil
}

// Abort drops everything written so far. It is a no-op after Commit.
func (o *Output) Abort() {
	if o.done {
		return
	}
	o.done = true
	o.discard()
}

func (o *Output) discard() {
	o.tmp.Close()
	osRemove(o.tmp.Name())
}
