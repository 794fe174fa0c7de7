package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/FocuswithJustin/playfair/core/errors"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "relative", path: "notes/today.txt"},
		{name: "absolute", path: "/var/tmp/a.pf"},
		{name: "empty", path: "", wantErr: ErrEmptyPath},
		{name: "too long", path: strings.Repeat("a", MaxPathLength+1), wantErr: ErrPathTooLong},
		{name: "null byte", path: "a\x00b", wantErr: ErrInvalidCharacter},
		{name: "control", path: "a\nb", wantErr: ErrInvalidCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePath(%q) = %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
			}
			if !errors.Is(err, perrors.ErrInvalidInput) {
				t.Errorf("error %v does not match ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "plain", in: "msg.txt.pf"},
		{name: "dotfile", in: ".pf.dec"},
		{name: "empty", in: "", wantErr: ErrInvalidFilename},
		{name: "dot", in: ".", wantErr: ErrInvalidFilename},
		{name: "dotdot", in: "..", wantErr: ErrInvalidFilename},
		{name: "separator", in: "a/b", wantErr: ErrInvalidFilename},
		{name: "backslash", in: `a\b`, wantErr: ErrInvalidFilename},
		{name: "hyphen", in: "-rf.pf", wantErr: ErrInvalidFilename},
		{name: "too long", in: strings.Repeat("x", MaxFilenameLength+1), wantErr: ErrFilenameTooLong},
		{name: "control", in: "a\tb", wantErr: ErrInvalidCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.in)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateFilename(%q) = %v", tt.in, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename(%q) = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestInputFileAndOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := InputFile(file); err != nil {
		t.Errorf("InputFile(file) = %v", err)
	}
	if err := InputFile(dir); !errors.Is(err, ErrNotRegular) {
		t.Errorf("InputFile(dir) = %v, want ErrNotRegular", err)
	}
	if err := InputFile(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("InputFile(missing) = %v, want ErrNotExist", err)
	}

	if err := OutputDir(dir); err != nil {
		t.Errorf("OutputDir(dir) = %v", err)
	}
	if err := OutputDir(file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("OutputDir(file) = %v, want ErrNotDirectory", err)
	}
}

func TestOutputName(t *testing.T) {
	if err := OutputName("/out/notes.txt.pf"); err != nil {
		t.Errorf("OutputName = %v", err)
	}
	if err := OutputName("/out/-x.pf"); !errors.Is(err, ErrInvalidFilename) {
		t.Errorf("OutputName(-x.pf) = %v", err)
	}
}

func TestDistinctOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.pf")
	if err := os.WriteFile(in, []byte("AB"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.pf")
	if err := os.Symlink(in, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := DistinctOutput(filepath.Join(dir, "a.pf.dec"), []string{in}); err != nil {
		t.Errorf("distinct output rejected: %v", err)
	}
	if err := DistinctOutput(filepath.Join(dir, ".", "a.pf"), []string{in}); !errors.Is(err, ErrOverwritesInput) {
		t.Errorf("same path = %v, want ErrOverwritesInput", err)
	}
	if err := DistinctOutput(link, []string{in}); !errors.Is(err, ErrOverwritesInput) {
		t.Errorf("symlinked path = %v, want ErrOverwritesInput", err)
	}
}

func TestLimits(t *testing.T) {
	for _, n := range []int{0, 1, 500000, MaxChunkSize} {
		if err := ChunkSize(n); err != nil {
			t.Errorf("ChunkSize(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, MaxChunkSize + 1} {
		if err := ChunkSize(n); !errors.Is(err, perrors.ErrInvalidInput) {
			t.Errorf("ChunkSize(%d) = %v", n, err)
		}
	}
	if err := Group(0); err != nil {
		t.Errorf("Group(0) = %v", err)
	}
	if err := Group(-2); err == nil {
		t.Error("Group(-2) accepted")
	}
}
