// Package batch runs a cipher over a list of files, one output file per
// input. A file that fails is recorded and skipped; the rest still run.
package batch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/playfair/core/digest"
	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/playfair"
	"github.com/FocuswithJustin/playfair/core/textio"
	"github.com/FocuswithJustin/playfair/internal/journal"
	"github.com/FocuswithJustin/playfair/internal/logging"
	"github.com/FocuswithJustin/playfair/internal/validation"
)

// Options configures a Runner.
type Options struct {
	OutDir    string
	ChunkSize int
	Group     int
	Compress  textio.Compression
	XPath     string
	// KeyDigest identifies the key file in the journal.
	KeyDigest string
	// Journal is optional.
	Journal *journal.Journal
}

// FileResult is the outcome for one input.
type FileResult struct {
	Input       string
	Output      string
	Stats       playfair.Stats
	InputDigest digest.Result
	// Digest covers the output file as stored, after compression.
	Digest   digest.Result
	Duration time.Duration
	Err      error
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID    string
	Results  []FileResult
	OK       int
	Failed   int
	BytesOut int64
	Duration time.Duration
}

// Runner drives one Cipher over many files.
type Runner struct {
	cipher *playfair.Cipher
	opts   Options
	now    func() time.Time
}

// NewRunner checks opts and returns a Runner.
func NewRunner(c *playfair.Cipher, opts Options) (*Runner, error) {
	if err := validation.OutputDir(opts.OutDir); err != nil {
		return nil, err
	}
	if err := validation.ChunkSize(opts.ChunkSize); err != nil {
		return nil, err
	}
	if err := validation.Group(opts.Group); err != nil {
		return nil, err
	}
	return &Runner{cipher: c, opts: opts, now: time.Now}, nil
}

// Run processes inputs in order. The returned error is only set when the
// run itself could not proceed (cancellation, journal failure); per-file
// failures are in the Summary.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Summary, error) {
	start := r.now()
	sum := &Summary{RunID: uuid.NewString()}
	dir := r.cipher.Direction().String()

	// Journal writes outlive cancellation so an interrupted run is still recorded.
	jctx := context.WithoutCancel(ctx)
	if j := r.opts.Journal; j != nil {
		run, err := j.StartRun(jctx, dir, r.opts.KeyDigest)
		if err != nil {
			return nil, err
		}
		sum.RunID = run.ID
	}
	ctx = logging.WithRunID(ctx, sum.RunID)
	logging.RunStarted(ctx, dir, len(inputs), "out_dir", r.opts.OutDir, "compress", r.opts.Compress.String())

	var runErr error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		t0 := r.now()
		res := r.processFile(ctx, in, inputs)
		res.Duration = r.now().Sub(t0)
		sum.Results = append(sum.Results, res)
		if res.Err != nil {
			if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
				runErr = res.Err
			}
			sum.Failed++
			logging.FileFailed(ctx, in, res.Err)
		} else {
			sum.OK++
			sum.BytesOut += res.Digest.Size
			logging.FileProcessed(ctx, in, res.Output, res.Stats.Letters, res.Digest.Size, res.Duration, "chunks", res.Stats.Chunks)
		}
		if err := r.record(jctx, sum.RunID, res); err != nil {
			return sum, err
		}
		if runErr != nil {
			break
		}
	}

	sum.Duration = r.now().Sub(start)
	if j := r.opts.Journal; j != nil {
		status := journal.StatusCompleted
		switch {
		case runErr != nil:
			status = journal.StatusCancelled
		case sum.Failed > 0:
			status = journal.StatusFailed
		}
		if err := j.FinishRun(jctx, sum.RunID, status); err != nil {
			return sum, err
		}
	}
	logging.RunFinished(ctx, sum.OK, sum.Failed, sum.Duration)
	return sum, runErr
}

func (r *Runner) processFile(ctx context.Context, in string, inputs []string) FileResult {
	res := FileResult{Input: in}
	if err := validation.InputFile(in); err != nil {
		res.Err = err
		return res
	}
	out := textio.OutputPath(r.opts.OutDir, in, r.cipher.Direction(), r.opts.Compress)
	if err := validation.OutputName(out); err != nil {
		res.Err = err
		return res
	}
	if err := validation.DistinctOutput(out, inputs); err != nil {
		res.Err = err
		return res
	}
	res.Output = out

	inDigest, err := digest.File(in)
	if err != nil {
		res.Err = err
		return res
	}
	res.InputDigest = inDigest

	src, err := textio.Open(in, textio.OpenOptions{XPath: r.opts.XPath})
	if err != nil {
		res.Err = err
		return res
	}
	defer src.Close()

	o, err := textio.CreateOutput(out, r.opts.Compress, r.opts.Group)
	if err != nil {
		res.Err = err
		return res
	}
	stats, err := r.cipher.Process(ctx, playfair.NewStream(src, r.opts.ChunkSize), o)
	res.Stats = stats
	if err != nil {
		o.Abort()
		var empty *errors.EmptyInputError
		if errors.As(err, &empty) {
			empty.Path = in
		}
		var ioErr *errors.IOError
		if errors.As(err, &ioErr) && ioErr.Path == "" {
			ioErr.Path = in
		}
		res.Err = err
		return res
	}
	d, err := o.Commit()
	if err != nil {
		res.Err = err
		return res
	}
	res.Digest = d
	return res
}

func (r *Runner) record(ctx context.Context, runID string, res FileResult) error {
	j := r.opts.Journal
	if j == nil {
		return nil
	}
	f := journal.File{
		RunID:        runID,
		Input:        res.Input,
		Output:       res.Output,
		Status:       journal.StatusCompleted,
		Letters:      res.Stats.Letters,
		Digraphs:     res.Stats.Digraphs,
		BytesIn:      res.Stats.Bytes,
		InputBLAKE3:  res.InputDigest.BLAKE3,
		OutputBLAKE3: res.Digest.BLAKE3,
		OutputSHA256: res.Digest.SHA256,
		OutputSize:   res.Digest.Size,
		Compression:  string(r.opts.Compress),
	}
	// verify looks outputs up by absolute path.
	if abs, err := filepath.Abs(res.Output); err == nil && res.Output != "" {
		f.Output = abs
	}
	if res.Err != nil {
		f.Status = journal.StatusFailed
		f.Error = res.Err.Error()
		f.Output = ""
	}
	return j.RecordFile(ctx, f)
}
