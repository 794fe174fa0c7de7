package playfair

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/playfair/core/errors"
)

// Coordinates locate a letter in the matrix.
type Coordinates struct {
	Row int
	Col int
}

// Matrix is the keyed 5x5 letter grid. It is immutable once built and safe
// for concurrent readers.
type Matrix struct {
	cells   [Size][Size]byte
	index   [26]Coordinates
	present [26]bool
}

// BuildMatrix lays out the key letters (in order, first occurrence only, with
// the absent letter replaced) followed by the remaining alphabet letters,
// row-major.
func BuildMatrix(km KeyMaterial) (*Matrix, error) {
	text := matrixText(km)
	if len(text) != AlphabetLen {
		return nil, errors.NewKeyMaterial("", fmt.Sprintf("matrix needs %d letters, key material yields %d", AlphabetLen, len(text)))
	}

	m := &Matrix{}
	for i, c := range text {
		row, col := i/Size, i%Size
		m.cells[row][col] = c
		m.index[c-'A'] = Coordinates{Row: row, Col: col}
		m.present[c-'A'] = true
	}
	return m, nil
}

func matrixText(km KeyMaterial) []byte {
	var used [26]bool
	text := make([]byte, 0, AlphabetLen)
	add := func(c byte) {
		if !km.alphabet.Contains(c) || used[c-'A'] {
			return
		}
		used[c-'A'] = true
		text = append(text, c)
	}

	for i := 0; i < len(km.key); i++ {
		if c, ok := foldLetter(km.key[i]); ok {
			add(km.substitute(c))
		}
	}
	for _, c := range km.alphabet.Letters() {
		add(c)
	}
	return text
}

// Locate returns the coordinates of letter. A letter outside the alphabet is a
// LetterError; callers must abandon the current input.
func (m *Matrix) Locate(letter byte) (Coordinates, error) {
	if letter < 'A' || letter > 'Z' || !m.present[letter-'A'] {
		return Coordinates{}, errors.NewLetter(letter)
	}
	return m.index[letter-'A'], nil
}

// At returns the letter at row, col. Both are reduced modulo Size.
func (m *Matrix) At(row, col int) byte {
	return m.cells[mod(row)][mod(col)]
}

func mod(i int) int {
	i %= Size
	if i < 0 {
		i += Size
	}
	return i
}

// Rows returns each matrix row as a string.
func (m *Matrix) Rows() []string {
	rows := make([]string, Size)
	for r := range m.cells {
		rows[r] = string(m.cells[r][:])
	}
	return rows
}

// String renders the grid as five lines of space-separated letters.
func (m *Matrix) String() string {
	var b strings.Builder
	for r := range m.cells {
		for c, letter := range m.cells[r] {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(letter)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
