package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/riichi-tools/mjview/internal/decoder"
	"github.com/riichi-tools/mjview/internal/logging"
	"github.com/riichi-tools/mjview/internal/record"
	"github.com/riichi-tools/mjview/internal/template"
	"github.com/riichi-tools/mjview/pkg/types"
)

// WriteError reports a viewer that could not be written to disk.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Options control how the orchestrator processes a batch.
type Options struct {
	// OutputDir is where viewers are written. Empty means alongside
	// each input file.
	OutputDir string

	// StrictRecords promotes any malformed line to a whole-file
	// failure. The default skips the line and keeps the rest.
	StrictRecords bool

	// Workers is the number of files processed concurrently.
	Workers int
}

// Orchestrator runs the decode/validate/render pipeline over a batch of
// input files. Failures are isolated per file; the template is shared
// read-only across the whole run.
type Orchestrator struct {
	tmpl      *template.Template
	opts      Options
	validator *record.Validator
	logger    *logging.Logger
}

// New creates an orchestrator for one batch run.
func New(tmpl *template.Template, opts Options, logger *logging.Logger) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		tmpl:      tmpl,
		opts:      opts,
		validator: record.NewValidator(),
		logger:    logger.WithComponent("batch"),
	}
}

// OutputName derives the viewer file name from an input path: the codec
// extension and the inner extension are stripped, ".html" is appended.
// "10000_8192_a.json.gz" becomes "10000_8192_a.html".
func OutputName(input string) string {
	base := filepath.Base(input)
	if decoder.IsCompressed(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".html"
}

// OutputPath returns where the viewer for input will be written.
func (o *Orchestrator) OutputPath(input string) string {
	dir := o.opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, OutputName(input))
}

// Run processes every file independently and never aborts on a per-file
// error. Outcomes are reported in input order regardless of worker
// count. Two inputs mapping to the same output path fail the later one
// rather than silently overwriting the first.
func (o *Orchestrator) Run(files []string) *types.BatchResult {
	outcomes := make([]types.Outcome, len(files))

	collision := make([]error, len(files))
	firstFor := make(map[string]string, len(files))
	for i, input := range files {
		out := o.OutputPath(input)
		if prev, ok := firstFor[out]; ok {
			collision[i] = fmt.Errorf("output %s already produced from %s", out, prev)
		} else {
			firstFor[out] = input
		}
	}

	process := func(i int) {
		input := files[i]
		if err := collision[i]; err != nil {
			outcomes[i] = types.Outcome{Input: input, Err: err}
			return
		}
		out, err := o.processFile(input)
		if err != nil {
			o.logger.Error().Str("input", input).Err(err).Msg("File failed")
			outcomes[i] = types.Outcome{Input: input, Err: err}
			return
		}
		outcomes[i] = types.Outcome{Input: input, Output: out}
	}

	if o.opts.Workers == 1 {
		for i := range files {
			process(i)
		}
	} else {
		// Per-index outcome slots keep the accumulator race-free
		// without a lock; the template is read-only.
		var wg sync.WaitGroup
		idxCh := make(chan int)
		for w := 0; w < o.opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idxCh {
					process(i)
				}
			}()
		}
		for i := range files {
			idxCh <- i
		}
		close(idxCh)
		wg.Wait()
	}

	return &types.BatchResult{Outcomes: outcomes}
}

// processFile runs one input through decode, validate and render, then
// writes the viewer. The decoded records live only for the duration of
// this call.
func (o *Orchestrator) processFile(input string) (string, error) {
	reader, err := decoder.Open(input)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var records []types.Record
	skipped := 0
	for reader.Next() {
		n, line := reader.Line()
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, err := o.validator.Validate(n, line)
		if err != nil {
			if o.opts.StrictRecords {
				return "", err
			}
			o.logger.Warn().Str("input", input).Err(err).Msg("Skipping invalid record")
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return "", err
	}

	outPath := o.OutputPath(input)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", &WriteError{Path: outPath, Err: err}
	}
	if err := os.WriteFile(outPath, o.tmpl.Render(records), 0o644); err != nil {
		return "", &WriteError{Path: outPath, Err: err}
	}

	o.logger.Info().
		Str("input", input).
		Str("output", outPath).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("Generated viewer")

	return outPath, nil
}
