// Package digest computes the content hashes recorded for cipher inputs and
// outputs.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"regexp"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// ErrInvalidHash reports a string that is not a 64 character lowercase hex digest.
var ErrInvalidHash = errors.NewValidation("hash", "invalid hash format")

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Result holds both digests of one byte sequence.
type Result struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Sum hashes data.
func Sum(data []byte) Result {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return Result{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
		Size:   int64(len(data)),
	}
}

// Hasher accumulates both digests over everything written to it.
type Hasher struct {
	sha  hash.Hash
	b3   *blake3.Hasher
	size int64
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{sha: sha256.New(), b3: blake3.New()}
}

// Write implements io.Writer. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	h.sha.Write(p)
	h.b3.Write(p)
	h.size += int64(len(p))
	return len(p), nil
}

// Result returns the digests of the bytes written so far.
func (h *Hasher) Result() Result {
	return Result{
		SHA256: hex.EncodeToString(h.sha.Sum(nil)),
		BLAKE3: hex.EncodeToString(h.b3.Sum(nil)),
		Size:   h.size,
	}
}

// Reader hashes everything read from r.
func Reader(r io.Reader) (Result, error) {
	h := NewHasher()
	if _, err := io.Copy(h, r); err != nil {
		return Result{}, err
	}
	return h.Result(), nil
}

// openFile is injectable for testing.
var openFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }

// File hashes the file at path without loading it into memory.
func File(path string) (Result, error) {
	f, err := openFile(path)
	if err != nil {
		return Result{}, errors.NewIO("open", path, err)
	}
	defer f.Close()
	res, err := Reader(f)
	if err != nil {
		return Result{}, errors.NewIO("read", path, err)
	}
	return res, nil
}

// IsValid reports whether s looks like a digest produced by this package.
func IsValid(s string) bool {
	return hashPattern.MatchString(s)
}

// Match reports whether want is got's BLAKE3 or SHA-256 digest. A
// malformed want is an error.
func Match(want string, got Result) (bool, error) {
	if !IsValid(want) {
		return false, ErrInvalidHash
	}
	return want == got.BLAKE3 || want == got.SHA256, nil
}
