// Package keyfile reads Playfair key files.
//
// A key file is plain text. The first line lists the 25 alphabet letters.
// After it, the first letter found is the replacement letter and the next
// one is the filler letter; anything in between is ignored. The remainder of
// the file is the key.
//
//	ABCDEFGHIKLMNOPQRSTUVWXYZ
//	I X
//	Playfair example
package keyfile

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/playfair"
)

// File is a parsed key file. Letters are as written; validation happens in
// KeyMaterial.
type File struct {
	Path        string
	Alphabet    string
	Replacement byte
	Filler      byte
	Key         string
}

//nolint:govet // participle grammar tags are not standard struct tags
type keyFileGrammar struct {
	Alphabet    []string `( @Letter | Other )* EOL`
	Replacement string   `( EOL | Other )* @Letter`
	Filler      string   `( EOL | Other )* @Letter`
	Key         []string `( @Letter | @Other | @EOL )*`
}

// keyFileLexer splits a key file into single letters, line ends and runs of
// anything else. CRLF counts as one line end.
var keyFileLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Letter", Pattern: `[A-Za-z]`},
	{Name: "Other", Pattern: `[^A-Za-z\n]+`},
})

var keyFileParser = participle.MustBuild[keyFileGrammar](
	participle.Lexer(keyFileLexer),
)

// readFile is injectable for testing.
var readFile = os.ReadFile

// Parse reads a key file from r. name is used in error messages.
func Parse(name string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", name, err)
	}
	return parse(name, data)
}

// ParseString parses key file text held in memory.
func ParseString(s string) (*File, error) {
	return parse("", []byte(s))
}

// Load reads and parses the key file at path.
func Load(path string) (*File, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return parse(path, data)
}

func parse(name string, data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewKeyMaterial("", "key file is empty")
	}
	g, err := keyFileParser.ParseBytes(name, data)
	if err != nil {
		pe := errors.NewParse("key file", name, err.Error())
		pe.Err = err
		f, msg := missing(data)
		return nil, &errors.KeyMaterialError{Field: f, Message: msg, Err: pe}
	}
	return &File{
		Path:        name,
		Alphabet:    strings.Join(g.Alphabet, ""),
		Replacement: g.Replacement[0],
		Filler:      g.Filler[0],
		Key:         strings.TrimSpace(strings.Join(g.Key, "")),
	}, nil
}

// missing names the part of a malformed file that could not be found.
func missing(data []byte) (string, string) {
	eol := bytes.IndexByte(data, '\n')
	if eol < 0 {
		return "alphabet", "alphabet line is not terminated"
	}
	letters := 0
	for _, c := range data[eol+1:] {
		if ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') {
			letters++
		}
	}
	if letters == 0 {
		return "replacement", "no replacement letter"
	}
	return "filler", "no filler letter"
}

// KeyMaterial validates the file contents.
func (f *File) KeyMaterial() (playfair.KeyMaterial, error) {
	return playfair.NewKeyMaterial(f.Alphabet, f.Replacement, f.Filler, f.Key)
}

// LoadKeyMaterial loads path and validates it in one step.
func LoadKeyMaterial(path string) (playfair.KeyMaterial, error) {
	f, err := Load(path)
	if err != nil {
		return playfair.KeyMaterial{}, err
	}
	return f.KeyMaterial()
}

// String renders f in key file form. Parsing the result yields f again.
func (f *File) String() string {
	var b strings.Builder
	b.WriteString(f.Alphabet)
	b.WriteByte('\n')
	b.WriteByte(f.Replacement)
	b.WriteByte(' ')
	b.WriteByte(f.Filler)
	b.WriteByte('\n')
	if f.Key != "" {
		b.WriteString(f.Key)
		b.WriteByte('\n')
	}
	return b.String()
}
