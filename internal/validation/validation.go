// Package validation checks user-supplied paths and limits before a run
// touches the filesystem.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// Limits on user input.
const (
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// MaxChunkSize caps the per-read buffer (64 MiB).
	MaxChunkSize = 64 << 20
	// MaxGroup caps digraphs per output line.
	MaxGroup = 10000
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.NewValidation("filename", "invalid filename")
	ErrPathTooLong      = errors.NewValidation("path", "path too long")
	ErrFilenameTooLong  = errors.NewValidation("filename", "filename too long")
	ErrInvalidCharacter = errors.NewValidation("path", "invalid character in path")
	ErrEmptyPath        = errors.NewValidation("path", "path cannot be empty")
	ErrNotRegular       = errors.NewValidation("path", "not a regular file")
	ErrNotDirectory     = errors.NewValidation("path", "not a directory")
	ErrOverwritesInput  = errors.NewValidation("output", "output would overwrite an input file")
)

func wrap(sentinel error, detail string) error {
	return fmt.Errorf("%w: %s", sentinel, detail)
}

// ValidatePath rejects empty, overlong and control-character paths.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return wrap(ErrInvalidCharacter, "null byte not allowed")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return wrap(ErrInvalidCharacter, "control character not allowed")
		}
	}
	return nil
}

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return wrap(ErrInvalidFilename, "reserved name")
	}
	if strings.ContainsAny(filename, "/\\") {
		return wrap(ErrInvalidFilename, "path separator not allowed")
	}
	if err := ValidatePath(filename); err != nil {
		return err
	}
	// Would be read as a flag by the next tool in a pipeline.
	if strings.HasPrefix(filename, "-") {
		return wrap(ErrInvalidFilename, "filename cannot start with hyphen")
	}
	return nil
}

// osStat is injectable for testing.
var osStat = os.Stat

// InputFile checks that path names an existing regular file.
func InputFile(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	info, err := osStat(path)
	if err != nil {
		return errors.NewIO("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return wrap(ErrNotRegular, path)
	}
	return nil
}

// OutputDir checks that dir exists and is a directory.
func OutputDir(dir string) error {
	if err := ValidatePath(dir); err != nil {
		return err
	}
	info, err := osStat(dir)
	if err != nil {
		return errors.NewIO("stat", dir, err)
	}
	if !info.IsDir() {
		return wrap(ErrNotDirectory, dir)
	}
	return nil
}

// OutputName checks the file name part of a derived output path.
func OutputName(path string) error {
	return ValidateFilename(filepath.Base(path))
}

// DistinctOutput fails when output resolves to the same file as any input.
func DistinctOutput(output string, inputs []string) error {
	absOut, err := filepath.Abs(output)
	if err != nil {
		return errors.NewIO("resolve", output, err)
	}
	outInfo, statErr := osStat(output)
	for _, in := range inputs {
		absIn, err := filepath.Abs(in)
		if err != nil {
			return errors.NewIO("resolve", in, err)
		}
		if absIn == absOut {
			return wrap(ErrOverwritesInput, in)
		}
		if statErr == nil {
			if inInfo, err := osStat(in); err == nil && os.SameFile(inInfo, outInfo) {
				return wrap(ErrOverwritesInput, in)
			}
		}
	}
	return nil
}

// ChunkSize checks a read buffer size. Zero selects the default.
func ChunkSize(n int) error {
	if n < 0 || n > MaxChunkSize {
		return errors.NewValidation("chunk-size", fmt.Sprintf("must be between 1 and %d bytes", MaxChunkSize))
	}
	return nil
}

// Group checks a digraphs-per-line setting. Zero means one line.
func Group(n int) error {
	if n < 0 || n > MaxGroup {
		return errors.NewValidation("group", fmt.Sprintf("must be between 0 and %d", MaxGroup))
	}
	return nil
}
