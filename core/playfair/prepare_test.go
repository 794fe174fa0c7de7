package playfair

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	got := string(p.Normalize([]byte("Jam, jelly & 42 jars!\n")))
	if got != "IAMIELLYIARS" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestSplit(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "A", want: "A"},
		{in: "AB", want: "AB"},
		{in: "HELLO", want: "HELXLO"},
		{in: "BALLOON", want: "BALXLOON"},
		{in: "AAA", want: "AXAXA"},
		{in: "ABBA", want: "ABBA"},
		{in: "LLL", want: "LXLXL"},
		// The filler itself doubled produces an identical pair.
		{in: "XX", want: "XXX"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := string(p.Split([]byte(tt.in))); got != tt.want {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitLeavesNoDoubledPairs(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	for _, in := range []string{"MISSISSIPPI", "BOOKKEEPER", "AABBCCDDEE", "QQQQQQ"} {
		seq := p.Split([]byte(in))
		for i := 0; i+1 < len(seq); i += 2 {
			if seq[i] == seq[i+1] {
				t.Errorf("Split(%q) pair %d is %q", in, i/2, seq[i:i+2])
			}
		}
		// A fully paired result is a fixed point.
		if len(seq)%2 == 0 {
			if again := p.Split(seq); string(again) != string(seq) {
				t.Errorf("Split(Split(%q)) = %q, want %q", in, again, seq)
			}
		}
	}
}

func TestPrepareAtEndOfInput(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	tests := []struct {
		in       string
		want     string
		wantUsed int
	}{
		{in: "cat", want: "CA TX", wantUsed: 3},
		{in: "joker", want: "IO KE RX", wantUsed: 5},
		{in: "hello", want: "HE LX LO", wantUsed: 5},
		{in: "?!", want: "", wantUsed: 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ds, used, err := p.Prepare([]byte(tt.in), EndOfInput)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if got := Join(ds, " "); got != tt.want {
				t.Errorf("Prepare(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if used != tt.wantUsed {
				t.Errorf("used = %d, want %d", used, tt.wantUsed)
			}
		})
	}
}

func TestPrepareNilLookaheadIsEndOfInput(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	ds, _, err := p.Prepare([]byte("CAT"), nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got := Join(ds, " "); got != "CA TX" {
		t.Errorf("Prepare = %q", got)
	}
}

func TestPrepareChunkBoundary(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	tests := []struct {
		name      string
		chunk     string
		rest      string
		want      string
		wantUsed  int
		wantAfter string
	}{
		{name: "partner taken from next chunk", chunk: "HEL", rest: "PO", want: "HE LP", wantUsed: 4, wantAfter: "O"},
		{name: "next letter repeats trailing letter", chunk: "HEL", rest: "LO", want: "HE LX", wantUsed: 3, wantAfter: "LO"},
		{name: "non-letters before partner are skipped", chunk: "HEL", rest: " , p!", want: "HE LP", wantUsed: 4, wantAfter: "!"},
		{name: "absent letter is substituted before comparing", chunk: "HEI", rest: "jM", want: "HE IX", wantUsed: 3, wantAfter: "jM"},
		{name: "substituted partner", chunk: "HEL", rest: "j", want: "HE LI", wantUsed: 4, wantAfter: ""},
		{name: "only non-letters remain", chunk: "HEL", rest: "...", want: "HE LX", wantUsed: 3, wantAfter: ""},
		{name: "even chunk leaves rest untouched", chunk: "HE", rest: "  LO", want: "HE", wantUsed: 2, wantAfter: "  LO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(strings.NewReader(tt.rest), 64)
			ds, used, err := p.Prepare([]byte(tt.chunk), s)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if got := Join(ds, " "); got != tt.want {
				t.Errorf("Prepare = %q, want %q", got, tt.want)
			}
			if used != tt.wantUsed {
				t.Errorf("used = %d, want %d", used, tt.wantUsed)
			}
			after, err := s.Next()
			if err != nil && err != io.EOF {
				t.Fatalf("Next: %v", err)
			}
			if string(after) != tt.wantAfter {
				t.Errorf("remaining = %q, want %q", after, tt.wantAfter)
			}
		})
	}
}

type failingLookahead struct{ peekErr, consumeErr error }

func (f failingLookahead) PeekLetter() (byte, bool, error) {
	if f.peekErr != nil {
		return 0, false, f.peekErr
	}
	return 'Q', true, nil
}

func (f failingLookahead) ConsumeLetter() error { return f.consumeErr }

func TestPrepareLookaheadErrors(t *testing.T) {
	p := NewPreparer(newTestKeyMaterial(t, ""))
	boom := errors.New("boom")
	for _, la := range []Lookahead{failingLookahead{peekErr: boom}, failingLookahead{consumeErr: boom}} {
		if _, _, err := p.Prepare([]byte("ABC"), la); !errors.Is(err, boom) {
			t.Errorf("Prepare error = %v, want wrapped boom", err)
		}
	}
}

func TestEndOfInputCannotConsume(t *testing.T) {
	if err := EndOfInput.ConsumeLetter(); err == nil {
		t.Error("ConsumeLetter on EndOfInput succeeded")
	}
}

func TestStreamChunks(t *testing.T) {
	s := NewStream(strings.NewReader("abcdefg"), 3)
	var got []string
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, string(chunk))
	}
	if strings.Join(got, "|") != "abc|def|g" {
		t.Errorf("chunks = %v", got)
	}
	if s.Offset() != 7 {
		t.Errorf("Offset = %d, want 7", s.Offset())
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next after EOF = %v", err)
	}
}

func TestStreamPeekAndConsume(t *testing.T) {
	s := NewStream(strings.NewReader("  ,p!"), 10)
	if err := s.ConsumeLetter(); err == nil {
		t.Fatal("ConsumeLetter without PeekLetter succeeded")
	}
	c, ok, err := s.PeekLetter()
	if err != nil || !ok || c != 'P' {
		t.Fatalf("PeekLetter = %q, %v, %v", c, ok, err)
	}
	if s.Offset() != 3 {
		t.Errorf("Offset after peek = %d, want 3", s.Offset())
	}
	if err := s.ConsumeLetter(); err != nil {
		t.Fatalf("ConsumeLetter: %v", err)
	}
	if err := s.ConsumeLetter(); err == nil {
		t.Error("second ConsumeLetter succeeded")
	}
	if _, ok, _ := s.PeekLetter(); ok {
		t.Error("PeekLetter found a letter in \"!\"")
	}
	if s.Offset() != 5 {
		t.Errorf("Offset = %d, want 5", s.Offset())
	}
}

func TestNewStreamDefaultChunkSize(t *testing.T) {
	s := NewStream(strings.NewReader(""), 0)
	if len(s.buf) != DefaultChunkSize {
		t.Errorf("chunk size = %d, want %d", len(s.buf), DefaultChunkSize)
	}
}
