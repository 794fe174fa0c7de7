package textio

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// Compression names a container format for cipher input or output.
type Compression string

const (
	// CompressionNone is plain text.
	CompressionNone Compression = ""
	// CompressionXZ is an XZ/LZMA2 stream.
	CompressionXZ Compression = "xz"
	// CompressionLZ4 is an LZ4 frame.
	CompressionLZ4 Compression = "lz4"
)

var (
	xzMagic  = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Injectable functions for testing
var (
	xzNewReader  = xz.NewReader
	xzNewWriter  = xz.NewWriter
	lz4NewReader = func(r io.Reader) io.Reader { return lz4.NewReader(r) }
)

// ParseCompression accepts "", "none", "xz" and "lz4".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "xz":
		return CompressionXZ, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return "", errors.NewUnsupported("compression", s)
	}
}

// Extension is the file suffix for c, including the dot, or "".
func (c Compression) Extension() string {
	if c == CompressionNone {
		return ""
	}
	return "." + string(c)
}

// String returns "none" for plain text.
func (c Compression) String() string {
	if c == CompressionNone {
		return "none"
	}
	return string(c)
}

// Detect looks at the magic bytes at the head of br without consuming them.
func Detect(br *bufio.Reader) (Compression, error) {
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return "", err
	}
	switch {
	case bytes.HasPrefix(head, xzMagic):
		return CompressionXZ, nil
	case bytes.HasPrefix(head, lz4Magic):
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

// decompress wraps r in the decoder for c.
func decompress(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionXZ:
		zr, err := xzNewReader(r)
		if err != nil {
			return nil, errors.NewParse("xz", "", err.Error())
		}
		return zr, nil
	case CompressionLZ4:
		return lz4NewReader(r), nil
	default:
		return nil, errors.NewUnsupported("compression", string(c))
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compress wraps w in the encoder for c. Closing the result finishes the
// compressed stream but leaves w open.
func compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionXZ:
		zw, err := xzNewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create xz writer")
		}
		return zw, nil
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level4)); err != nil {
			return nil, errors.Wrap(err, "failed to configure lz4 writer")
		}
		return zw, nil
	default:
		return nil, errors.NewUnsupported("compression", string(c))
	}
}
