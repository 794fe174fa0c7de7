package playfair

import (
	"errors"
	"testing"

	perrors "github.com/FocuswithJustin/playfair/core/errors"
)

const classicAlphabet = "ABCDEFGHIKLMNOPQRSTUVWXYZ"

// newTestKeyMaterial returns the classic textbook setup: J folded into I,
// X as filler.
func newTestKeyMaterial(t *testing.T, key string) KeyMaterial {
	t.Helper()
	km, err := NewKeyMaterial(classicAlphabet, 'I', 'X', key)
	if err != nil {
		t.Fatalf("NewKeyMaterial: %v", err)
	}
	return km
}

func newTestCipher(t *testing.T, key string, dir Direction, opts ...Option) *Cipher {
	t.Helper()
	c, err := New(newTestKeyMaterial(t, key), dir, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewAlphabet(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantAbsent byte
		wantErr    bool
	}{
		{name: "classic without J", in: classicAlphabet, wantAbsent: 'J'},
		{name: "lower case and punctuation", in: "abcdefghijklmnop, rstuvwxyz", wantAbsent: 'Q'},
		{name: "missing A", in: "BCDEFGHIJKLMNOPQRSTUVWXYZ", wantAbsent: 'A'},
		{name: "too short", in: "ABCDEFGHIKLMNOPQRSTUVWXY", wantErr: true},
		{name: "all 26", in: "ABCDEFGHIJKLMNOPQRSTUVWXYZ", wantErr: true},
		{name: "duplicate", in: "ABCDEFGHIKLMNOPQRSTUVWXYA", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAlphabet(tt.in)
			if tt.wantErr {
				if !errors.Is(err, perrors.ErrKeyMaterial) {
					t.Fatalf("NewAlphabet(%q) error = %v, want ErrKeyMaterial", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAlphabet(%q): %v", tt.in, err)
			}
			if a.Absent() != tt.wantAbsent {
				t.Errorf("Absent() = %q, want %q", a.Absent(), tt.wantAbsent)
			}
			if len(a.Letters()) != AlphabetLen {
				t.Errorf("len(Letters()) = %d", len(a.Letters()))
			}
			if a.Contains(tt.wantAbsent) {
				t.Errorf("Contains(absent %q) = true", tt.wantAbsent)
			}
		})
	}
}

func TestNewKeyMaterial(t *testing.T) {
	tests := []struct {
		name        string
		replacement byte
		filler      byte
		wantField   string
	}{
		{name: "valid lower case letters", replacement: 'i', filler: 'x'},
		{name: "replacement is absent letter", replacement: 'J', filler: 'X', wantField: "replacement"},
		{name: "filler not a letter", replacement: 'I', filler: '#', wantField: "filler"},
		{name: "filler is absent letter", replacement: 'I', filler: 'j', wantField: "filler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, err := NewKeyMaterial(classicAlphabet, tt.replacement, tt.filler, "key")
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("NewKeyMaterial: %v", err)
				}
				if km.Replacement() != 'I' || km.Filler() != 'X' || km.Absent() != 'J' {
					t.Errorf("got replacement %q filler %q absent %q", km.Replacement(), km.Filler(), km.Absent())
				}
				return
			}
			var kmErr *perrors.KeyMaterialError
			if !errors.As(err, &kmErr) {
				t.Fatalf("error = %v, want KeyMaterialError", err)
			}
			if kmErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", kmErr.Field, tt.wantField)
			}
		})
	}
}

func TestBuildMatrixPlayfairKey(t *testing.T) {
	m, err := BuildMatrix(newTestKeyMaterial(t, "PLAYFAIR"))
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	want := []string{"PLAYF", "IRBCD", "EGHKM", "NOQST", "UVWXZ"}
	for i, row := range m.Rows() {
		if row != want[i] {
			t.Errorf("row %d = %s, want %s", i, row, want[i])
		}
	}
	if got := m.String(); got[:10] != "P L A Y F\n" {
		t.Errorf("String() first line = %q", got[:10])
	}
}

func TestBuildMatrixKeyWithAbsentLetterAndNoise(t *testing.T) {
	// J in the key is replaced by I; digits, spaces and repeats are skipped.
	m, err := BuildMatrix(newTestKeyMaterial(t, "jj 42 jazz"))
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if got := m.Rows()[0]; got != "IAZBC" {
		t.Errorf("row 0 = %s, want IAZBC", got)
	}
}

func TestBuildMatrixZeroKeyMaterial(t *testing.T) {
	if _, err := BuildMatrix(KeyMaterial{}); !errors.Is(err, perrors.ErrKeyMaterial) {
		t.Fatalf("BuildMatrix(zero) error = %v, want ErrKeyMaterial", err)
	}
}

func TestMatrixBijection(t *testing.T) {
	keys := []string{"", "PLAYFAIR", "PLAYFAIR EXAMPLE", "the quick brown fox", "ZYXWVUTSRQPONMLKIHGFEDCBA"}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			km := newTestKeyMaterial(t, key)
			m, err := BuildMatrix(km)
			if err != nil {
				t.Fatalf("BuildMatrix: %v", err)
			}
			seen := make(map[Coordinates]byte)
			for _, letter := range km.Alphabet().Letters() {
				pos, err := m.Locate(letter)
				if err != nil {
					t.Fatalf("Locate(%q): %v", letter, err)
				}
				if prev, dup := seen[pos]; dup {
					t.Fatalf("%q and %q share %+v", prev, letter, pos)
				}
				seen[pos] = letter
				if got := m.At(pos.Row, pos.Col); got != letter {
					t.Errorf("At(%+v) = %q, want %q", pos, got, letter)
				}
			}
			if len(seen) != AlphabetLen {
				t.Errorf("%d coordinates used, want %d", len(seen), AlphabetLen)
			}
		})
	}
}

func TestLocateRejectsForeignLetters(t *testing.T) {
	m, err := BuildMatrix(newTestKeyMaterial(t, "PLAYFAIR"))
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	for _, c := range []byte{'J', 'a', '1', 0} {
		_, err := m.Locate(c)
		var le *perrors.LetterError
		if !errors.As(err, &le) || le.Letter != c {
			t.Errorf("Locate(%q) error = %v, want LetterError", c, err)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"encode": Encode, "DECODE": Decode, " Encode ": Encode} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDirection("rot13"); !errors.Is(err, perrors.ErrUnsupported) {
		t.Errorf("ParseDirection(rot13) error = %v, want ErrUnsupported", err)
	}
}
