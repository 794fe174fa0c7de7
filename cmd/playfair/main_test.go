package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/playfair/core/digest"
	perrors "github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/internal/journal"
	"github.com/FocuswithJustin/playfair/internal/logging"
)

const testKeyFile = "ABCDEFGHIKLMNOPQRSTUVWXYZ\nI X\nPLAYFAIR EXAMPLE\n"

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// captureStdout redirects command output for the rest of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })
	return &buf
}

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestMatrixCmd(t *testing.T) {
	out := captureStdout(t)
	key := createTestFile(t, t.TempDir(), "key", testKeyFile)

	if err := (&MatrixCmd{Keyfile: key}).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"Absent:      J", "Replacement: I", "Filler:      X", "Key:         PLAYFAIR EXAMPLE", "P L A Y F\nI R E X M\n"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMatrixCmdBadKeyFile(t *testing.T) {
	captureStdout(t)
	key := createTestFile(t, t.TempDir(), "key", "ABCDEFGHIKLMNOPQRSTUVWXYZ")
	err := (&MatrixCmd{Keyfile: key}).Run()
	var kmErr *perrors.KeyMaterialError
	if !errors.As(err, &kmErr) || kmErr.Field != "alphabet" {
		t.Errorf("error = %v, want KeyMaterialError on alphabet", err)
	}
}

func TestEncodeDecodeWithJournal(t *testing.T) {
	ctx := context.Background()
	out := captureStdout(t)
	dir := t.TempDir()
	encDir, decDir := filepath.Join(dir, "enc"), filepath.Join(dir, "dec")
	for _, d := range []string{encDir, decDir} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	key := createTestFile(t, dir, "key", testKeyFile)
	plain := createTestFile(t, dir, "gold.txt", "Hide the gold in the tree stump.")
	g := &Globals{Journal: filepath.Join(dir, "journal.db"), Workers: 1}

	enc := &EncodeCmd{CipherArgs{Keyfile: key, OutDir: encDir, Files: []string{plain}, Compress: "none"}}
	if err := enc.Run(ctx, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded := filepath.Join(encDir, "gold.txt.pf")
	if b, _ := os.ReadFile(encoded); string(b) != "BM OD ZB XD NA BE KU DM UI XM MO UV IF\n" {
		t.Errorf("encoded = %q", b)
	}

	dec := &DecodeCmd{CipherArgs{Keyfile: key, OutDir: decDir, Files: []string{encoded}, Compress: "xz", Group: 5}}
	if err := dec.Run(ctx, g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.String(), "[OK] "+encoded) {
		t.Errorf("summary missing decode line:\n%s", out)
	}

	out.Reset()
	if err := (&HistoryCmd{Limit: 10}).Run(ctx, g); err != nil {
		t.Fatalf("history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "RUN") || !strings.Contains(lines[1], "decode") || !strings.Contains(lines[2], "encode") {
		t.Errorf("history listing:\n%s", out)
	}

	j, err := journal.Open(ctx, g.Journal)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := j.Runs(ctx, 10)
	j.Close()
	if err != nil || len(runs) != 2 {
		t.Fatalf("Runs: %v %d", err, len(runs))
	}

	out.Reset()
	if err := (&HistoryCmd{ID: runs[1].ID[:8], JSON: true}).Run(ctx, g); err != nil {
		t.Fatalf("history run: %v", err)
	}
	var detail struct {
		Run   journal.Run    `json:"run"`
		Files []journal.File `json:"files"`
	}
	if err := json.Unmarshal(out.Bytes(), &detail); err != nil {
		t.Fatalf("history JSON: %v\n%s", err, out)
	}
	if detail.Run.Direction != "encode" || len(detail.Files) != 1 || detail.Files[0].Letters != 25 {
		t.Errorf("history detail = %+v", detail)
	}
	keyDigest, _ := digest.File(key)
	if detail.Run.KeyDigest != keyDigest.BLAKE3 {
		t.Errorf("KeyDigest = %s, want %s", detail.Run.KeyDigest, keyDigest.BLAKE3)
	}

	decoded := filepath.Join(decDir, "gold.txt.dec.xz")
	out.Reset()
	if err := (&VerifyCmd{Files: []string{encoded, decoded}}).Run(ctx, g); err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}

	f, err := os.OpenFile(encoded, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("AB\n")
	f.Close()
	out.Reset()
	if err := (&VerifyCmd{Files: []string{encoded}}).Run(ctx, g); err == nil {
		t.Error("verify accepted a modified file")
	}
	if !strings.Contains(out.String(), "[FAIL] "+encoded) {
		t.Errorf("verify output:\n%s", out)
	}
}

func TestEncodeReportsFailedFiles(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	key := createTestFile(t, dir, "key", testKeyFile)
	good := createTestFile(t, dir, "good.txt", "cat")
	empty := createTestFile(t, dir, "empty.txt", "1234\n")
	outDir := t.TempDir()

	cmd := &EncodeCmd{CipherArgs{Keyfile: key, OutDir: outDir, Files: []string{good, empty}, Compress: "lz4"}}
	err := cmd.Run(context.Background(), &Globals{})
	if err == nil || err.Error() != "1 of 2 files failed" {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(out.String(), "[FAIL] "+empty) || !strings.Contains(out.String(), "1 ok, 1 failed") {
		t.Errorf("summary:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "good.txt.pf.lz4")); err != nil {
		t.Errorf("good output missing: %v", err)
	}
}

func TestVerifyWithDigest(t *testing.T) {
	out := captureStdout(t)
	path := createTestFile(t, t.TempDir(), "x.pf", "KG YV RV\n")
	sum := digest.Sum([]byte("KG YV RV\n"))

	for _, want := range []string{sum.BLAKE3, sum.SHA256} {
		if err := (&VerifyCmd{Files: []string{path}, Digest: want}).Run(context.Background(), &Globals{}); err != nil {
			t.Errorf("verify %s: %v", want, err)
		}
	}
	if err := (&VerifyCmd{Files: []string{path}, Digest: digest.Sum(nil).BLAKE3}).Run(context.Background(), &Globals{}); err == nil {
		t.Error("wrong digest accepted")
	}
	if !strings.Contains(out.String(), "digest mismatch") {
		t.Errorf("output:\n%s", out)
	}
}

func TestJournalRequired(t *testing.T) {
	captureStdout(t)
	ctx := context.Background()
	if err := (&HistoryCmd{}).Run(ctx, &Globals{}); !errors.Is(err, perrors.ErrInvalidInput) {
		t.Errorf("history without journal = %v", err)
	}
	if err := (&VerifyCmd{Files: []string{"x"}}).Run(ctx, &Globals{}); !errors.Is(err, perrors.ErrInvalidInput) {
		t.Errorf("verify without journal = %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out := captureStdout(t)
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "playfair version "+version) {
		t.Errorf("version output %q", out)
	}
}

func TestGlobalsPrecedence(t *testing.T) {
	cfg := createTestFile(t, t.TempDir(), "config.json", `{"chunk_size": 9, "log_level": "debug", "workers": 2}`)
	t.Setenv("PLAYFAIR_WORKERS", "3")
	t.Setenv("PLAYFAIR_LOG_FORMAT", "json")

	var app App
	parser, err := kong.New(&app, parserOptions(context.Background(), &app)...)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"--config", cfg, "--log-level", "warn", "version"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if app.ChunkSize != 9 {
		t.Errorf("ChunkSize = %d, want 9 from config", app.ChunkSize)
	}
	if app.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn from flag", app.LogLevel)
	}
	if app.Workers != 2 {
		t.Errorf("Workers = %d, want 2 from config over env", app.Workers)
	}
	if app.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json from env", app.LogFormat)
	}
	if err := app.setup(); err != nil {
		t.Errorf("setup: %v", err)
	}
	logging.SetOutput(io.Discard)
}

func TestGlobalsDefaults(t *testing.T) {
	var app App
	parser, err := kong.New(&app, parserOptions(context.Background(), &app)...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"version"}); err != nil {
		t.Fatal(err)
	}
	if app.ChunkSize != 500000 || app.Workers != 1 || app.LogLevel != "info" || app.Journal != "" {
		t.Errorf("defaults = %+v", app.Globals)
	}
}
