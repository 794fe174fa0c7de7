package textio

import (
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/playfair/core/playfair"
)

const (
	// EncodedExt marks ciphertext files.
	EncodedExt = ".pf"
	// DecodedExt marks deciphered files.
	DecodedExt = ".dec"
)

// OutputPath names the result of running in through dir inside outDir. A
// compression suffix and then a ciphertext suffix are removed from the
// input name before the new suffixes are added:
//
//	notes.txt      encode       -> notes.txt.pf
//	notes.txt.pf   decode       -> notes.txt.dec
//	notes.pf.xz    decode, lz4  -> notes.dec.lz4
func OutputPath(outDir, in string, dir playfair.Direction, c Compression) string {
	base := filepath.Base(in)
	for _, ext := range []string{CompressionXZ.Extension(), CompressionLZ4.Extension()} {
		if trimmed, ok := strings.CutSuffix(base, ext); ok && trimmed != "" {
			base = trimmed
			break
		}
	}
	if trimmed, ok := strings.CutSuffix(base, EncodedExt); ok && trimmed != "" {
		base = trimmed
	}
	ext := EncodedExt
	if dir == playfair.Decode {
		ext = DecodedExt
	}
	return filepath.Join(outDir, base+ext+c.Extension())
}
