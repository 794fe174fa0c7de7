// Command playfair enciphers and deciphers text files with the Playfair
// digraph cipher. It also prints key matrices, keeps a run journal and
// serves cipher sessions over websockets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/playfair/core/digest"
	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/keyfile"
	"github.com/FocuswithJustin/playfair/core/playfair"
	"github.com/FocuswithJustin/playfair/core/sqlite"
	"github.com/FocuswithJustin/playfair/core/textio"
	"github.com/FocuswithJustin/playfair/internal/batch"
	"github.com/FocuswithJustin/playfair/internal/journal"
	"github.com/FocuswithJustin/playfair/internal/logging"
	"github.com/FocuswithJustin/playfair/internal/server"
)

const version = "2.0.0"

// stdout receives command output; logs always go to stderr.
var stdout io.Writer = os.Stdout

// Globals are the settings shared by every command. Each one can also come
// from the environment or from a JSON config file.
type Globals struct {
	Config    kong.ConfigFlag `help:"Load settings from a JSON file."`
	LogLevel  string          `name:"log-level" help:"Log level (debug, info, warn, error)." enum:"debug,info,warn,error" default:"info" env:"PLAYFAIR_LOG_LEVEL"`
	LogFormat string          `name:"log-format" help:"Log format (text, json)." enum:"text,json" default:"text" env:"PLAYFAIR_LOG_FORMAT"`
	Journal   string          `help:"SQLite run journal; empty disables it." type:"path" env:"PLAYFAIR_JOURNAL"`
	ChunkSize int             `name:"chunk-size" help:"Bytes read per chunk." default:"500000" env:"PLAYFAIR_CHUNK_SIZE"`
	Workers   int             `help:"Goroutines applying the cipher within a chunk." default:"1" env:"PLAYFAIR_WORKERS"`
}

// App defines the command-line interface for playfair.
type App struct {
	Globals

	Encode  EncodeCmd  `cmd:"" help:"Encipher files"`
	Decode  DecodeCmd  `cmd:"" help:"Decipher files"`
	Matrix  MatrixCmd  `cmd:"" help:"Print the key material and cipher matrix"`
	History HistoryCmd `cmd:"" help:"Show journaled runs"`
	Verify  VerifyCmd  `cmd:"" help:"Check output files against their recorded digests"`
	Serve   ServeCmd   `cmd:"" help:"Serve cipher sessions over websockets"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CLI holds the parsed command line.
var CLI App

// setup applies the logging settings.
func (g *Globals) setup() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func (g *Globals) openJournal(ctx context.Context) (*journal.Journal, error) {
	if g.Journal == "" {
		return nil, nil
	}
	return journal.Open(ctx, g.Journal)
}

// requireJournal opens the configured journal read-only.
func (g *Globals) requireJournal(ctx context.Context) (*journal.Journal, error) {
	if g.Journal == "" {
		return nil, errors.NewValidation("journal", "no journal configured (use --journal or PLAYFAIR_JOURNAL)")
	}
	return journal.OpenReadOnly(ctx, g.Journal)
}

// CipherArgs are the arguments shared by encode and decode.
type CipherArgs struct {
	Keyfile  string   `arg:"" help:"Key file" type:"existingfile"`
	OutDir   string   `arg:"" name:"outdir" help:"Directory for output files" type:"existingdir"`
	Files    []string `arg:"" help:"Input files" type:"path"`
	Group    int      `help:"Digraphs per output line; 0 writes one line."`
	Compress string   `help:"Compress output (none, xz, lz4)." enum:"none,xz,lz4" default:"none"`
	XPath    string   `name:"xpath" help:"Cipher only the text selected by this XPath in XML inputs."`
}

// EncodeCmd enciphers files.
type EncodeCmd struct {
	CipherArgs `embed:""`
}

func (c *EncodeCmd) Run(ctx context.Context, g *Globals) error {
	return c.run(ctx, g, playfair.Encode)
}

// DecodeCmd deciphers files.
type DecodeCmd struct {
	CipherArgs `embed:""`
}

func (c *DecodeCmd) Run(ctx context.Context, g *Globals) error {
	return c.run(ctx, g, playfair.Decode)
}

func (a *CipherArgs) run(ctx context.Context, g *Globals, dir playfair.Direction) error {
	km, err := keyfile.LoadKeyMaterial(a.Keyfile)
	if err != nil {
		return err
	}
	keyDigest, err := digest.File(a.Keyfile)
	if err != nil {
		return err
	}
	c, err := playfair.New(km, dir, playfair.WithWorkers(g.Workers))
	if err != nil {
		return err
	}
	comp, err := textio.ParseCompression(a.Compress)
	if err != nil {
		return err
	}

	j, err := g.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	r, err := batch.NewRunner(c, batch.Options{
		OutDir:    a.OutDir,
		ChunkSize: g.ChunkSize,
		Group:     a.Group,
		Compress:  comp,
		XPath:     a.XPath,
		KeyDigest: keyDigest.BLAKE3,
		Journal:   j,
	})
	if err != nil {
		return err
	}
	sum, err := r.Run(ctx, a.Files)
	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.Failed, len(a.Files))
	}
	return nil
}

func printSummary(sum *batch.Summary) {
	for _, res := range sum.Results {
		if res.Err != nil {
			fmt.Fprintf(stdout, "[FAIL] %s: %v\n", res.Input, res.Err)
			continue
		}
		fmt.Fprintf(stdout, "[OK] %s -> %s (%s letters, %s)\n",
			res.Input, res.Output, humanize.Comma(res.Stats.Letters), humanize.Bytes(uint64(res.Digest.Size)))
	}
	fmt.Fprintf(stdout, "Run %s: %d ok, %d failed, %s written\n",
		sum.RunID, sum.OK, sum.Failed, humanize.Bytes(uint64(sum.BytesOut)))
}

// MatrixCmd prints a key file's settings and its matrix.
type MatrixCmd struct {
	Keyfile string `arg:"" help:"Key file" type:"existingfile"`
}

func (c *MatrixCmd) Run() error {
	f, err := keyfile.Load(c.Keyfile)
	if err != nil {
		return err
	}
	km, err := f.KeyMaterial()
	if err != nil {
		return err
	}
	m, err := playfair.BuildMatrix(km)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Alphabet:    %s\n", km.Alphabet())
	fmt.Fprintf(stdout, "Absent:      %c\n", km.Absent())
	fmt.Fprintf(stdout, "Replacement: %c\n", km.Replacement())
	fmt.Fprintf(stdout, "Filler:      %c\n", km.Filler())
	fmt.Fprintf(stdout, "Key:         %s\n", km.Key())
	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, m.String())
	return nil
}

// HistoryCmd lists journaled runs, or the files of one run.
type HistoryCmd struct {
	ID    string `arg:"" name:"run" optional:"" help:"Run ID or unique prefix"`
	Limit int    `help:"Number of runs to list." default:"20"`
	JSON  bool   `help:"Output as JSON"`
}

func (c *HistoryCmd) Run(ctx context.Context, g *Globals) error {
	j, err := g.requireJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	if c.ID == "" {
		runs, err := j.Runs(ctx, c.Limit)
		if err != nil {
			return err
		}
		if c.JSON {
			return writeJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No runs recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTARTED\tDIRECTION\tSTATUS\tOK\tFAILED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
				r.ID[:8], humanize.Time(r.StartedAt), r.Direction, r.Status, r.FilesOK, r.FilesFailed)
		}
		return tw.Flush()
	}

	run, err := j.Run(ctx, c.ID)
	if err != nil {
		return err
	}
	files, err := j.Files(ctx, run.ID)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(struct {
			Run   *journal.Run   `json:"run"`
			Files []journal.File `json:"files"`
		}{run, files})
	}
	fmt.Fprintf(stdout, "Run: %s\n", run.ID)
	fmt.Fprintf(stdout, "  Direction: %s\n", run.Direction)
	fmt.Fprintf(stdout, "  Status: %s\n", run.Status)
	fmt.Fprintf(stdout, "  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(stdout, "  Key BLAKE3: %s\n", run.KeyDigest)
	for _, f := range files {
		if f.Status != journal.StatusCompleted {
			fmt.Fprintf(stdout, "  [%s] %s: %s\n", strings.ToUpper(string(f.Status)), f.Input, f.Error)
			continue
		}
		fmt.Fprintf(stdout, "  [OK] %s -> %s (%s letters, %s)\n",
			f.Input, f.Output, humanize.Comma(f.Letters), humanize.Bytes(uint64(f.OutputSize)))
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// VerifyCmd recomputes output digests and compares them with the journal,
// or with --digest when given.
type VerifyCmd struct {
	Files  []string `arg:"" help:"Output files to check" type:"existingfile"`
	Digest string   `help:"Expected SHA-256 or BLAKE3 (hex) instead of the journal."`
}

func (c *VerifyCmd) Run(ctx context.Context, g *Globals) error {
	var j *journal.Journal
	if c.Digest == "" {
		var err error
		if j, err = g.requireJournal(ctx); err != nil {
			return err
		}
		defer j.Close()
	}

	failed := 0
	for _, path := range c.Files {
		if err := c.verify(ctx, j, path); err != nil {
			fmt.Fprintf(stdout, "[FAIL] %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "[OK] %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("verification failed: %d of %d file(s)", failed, len(c.Files))
	}
	return nil
}

func (c *VerifyCmd) verify(ctx context.Context, j *journal.Journal, path string) error {
	got, err := digest.File(path)
	if err != nil {
		return err
	}
	if j == nil {
		ok, err := digest.Match(c.Digest, got)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("digest mismatch")
		}
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewIO("resolve", path, err)
	}
	rec, err := j.LatestOutput(ctx, abs)
	if err != nil {
		return err
	}
	if rec.OutputBLAKE3 != got.BLAKE3 || rec.OutputSHA256 != got.SHA256 {
		return fmt.Errorf("digest mismatch with run %s", rec.RunID[:8])
	}
	return nil
}

// ServeCmd serves websocket cipher sessions.
type ServeCmd struct {
	Keyfile        string   `arg:"" help:"Key file" type:"existingfile"`
	Addr           string   `help:"Listen address." default:"127.0.0.1:8080" env:"PLAYFAIR_ADDR"`
	AllowedOrigins []string `name:"allowed-origin" help:"Accepted websocket Origin (repeatable; *.domain allowed)."`
	MaxMessageSize int64    `help:"Largest accepted message in bytes." default:"65536"`
	MaxMessageRate int      `help:"Messages per second per connection; 0 disables the limit." default:"50"`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	km, err := keyfile.LoadKeyMaterial(c.Keyfile)
	if err != nil {
		return err
	}
	cfg := server.DefaultConfig()
	cfg.Addr = c.Addr
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.MaxMessageSize = c.MaxMessageSize
	cfg.MaxMessageRate = c.MaxMessageRate
	s, err := server.New(km, cfg)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "playfair version %s (sqlite driver %s, %s)\n", version, info.DriverName, info.Package)
	return nil
}

// parserOptions configures kong for app. Flags win over config files,
// config files over PLAYFAIR_* variables, and those over defaults.
func parserOptions(ctx context.Context, app *App) []kong.Option {
	return []kong.Option{
		kong.Name("playfair"),
		kong.Description("Playfair digraph cipher"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "~/.config/playfair/config.json", "./playfair.json"),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&app.Globals),
	}
}

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := kong.Parse(&CLI, parserOptions(sigCtx, &CLI)...)
	ctx.FatalIfErrorf(CLI.Globals.setup())
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
