// Package textio moves cipher text in and out of files: compressed input
// detection, XML text extraction, digraph output formatting and output
// naming.
package textio

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// Injectable functions for testing
var (
	osOpen = func(path string) (io.ReadCloser, error) { return os.Open(path) }
)

// OpenOptions controls how a source file is read.
type OpenOptions struct {
	// XPath, when set, treats the input as XML and ciphers only the text of
	// the matching nodes, one node per line.
	XPath string
}

// Source is an opened input. Read yields plain text.
type Source struct {
	Path        string
	Compression Compression

	r      io.Reader
	closer io.Closer
}

// Open opens path, undoing xz or lz4 compression when the magic bytes say so.
func Open(path string, opts OpenOptions) (*Source, error) {
	f, err := osOpen(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	src, err := newSource(path, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func newSource(path string, rc io.ReadCloser, opts OpenOptions) (*Source, error) {
	br := bufio.NewReader(rc)
	c, err := Detect(br)
	if err != nil {
		return nil, errors.NewIO("read magic bytes", path, err)
	}
	r, err := decompress(br, c)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	if opts.XPath != "" {
		text, err := ExtractXML(r, opts.XPath)
		if err != nil {
			var pe *errors.ParseError
			if errors.As(err, &pe) {
				pe.Path = path
			}
			return nil, err
		}
		r = bytes.NewReader(text)
	}
	return &Source{Path: path, Compression: c, r: r, closer: rc}, nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.closer.Close()
}

// ExtractXML parses r as XML and returns the text content of every node
// matching expr, newline separated.
func ExtractXML(r io.Reader, expr string) ([]byte, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, errors.NewValidation("xpath", err.Error())
	}
	doc, err := xmlquery.Parse(r)
	if err != nil {
		pe := errors.NewParse("XML", "", err.Error())
		pe.Err = err
		return nil, pe
	}
	nodes := xmlquery.QuerySelectorAll(doc, compiled)
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n.InnerText())
	}
	return []byte(b.String()), nil
}
