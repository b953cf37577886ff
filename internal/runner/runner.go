// Package runner drives the external translation collaborator over a
// directory of batch files: a bounded worker pool where each worker owns
// exactly one batch file and produces exactly one disjoint result file.
// Workers share no mutable state, so a failed or cancelled batch simply
// leaves its result file absent — a normal partial-completion state the
// merge engine already understands.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/valpere/batchtran/internal"
	"github.com/valpere/batchtran/internal/batch"
	"github.com/valpere/batchtran/internal/placeholder"
	"github.com/valpere/batchtran/internal/translator"
)

// TargetValidator checks that a produced target appears to be in the
// expected language. Satisfied by *validator.Validator.
type TargetValidator interface {
	IsValid(translatedText, targetLang string) (bool, error)
}

// SegmentCache is the translation-memory surface the runner consults before
// calling the service and updates afterwards. Satisfied by *store.Store.
type SegmentCache interface {
	GetCachedSegment(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error)
	SaveSegment(ctx context.Context, sourceText, sourceLang, targetLang, targetText, serviceUsed string) error
}

// Options configures one Run.
type Options struct {
	BatchesDir string
	OutputDir  string
	SourceLang string
	TargetLang string

	// Workers is the number of batches translated in parallel. Values < 1
	// mean 1.
	Workers int
	// MaxAttempts is the total tries per batch including the first.
	MaxAttempts int
	// Batches restricts the run to specific batch numbers. Empty means all
	// batches without an existing result file.
	Batches []int

	Glossary     map[string]string
	Instructions string

	// Warn receives per-batch diagnostics; nil means os.Stderr.
	Warn io.Writer
}

// Outcome is the result of one batch job.
type Outcome struct {
	Batch    int
	Segments int
	Cached   int
	Suspect  int
	Elapsed  time.Duration
	Err      error
}

// Summary aggregates a whole run.
type Summary struct {
	Completed int
	Failed    int
	Segments  int
	Elapsed   time.Duration
	Outcomes  []Outcome
}

// Runner owns the service and the optional cache/validator collaborators.
type Runner struct {
	service   translator.Service
	cfg       translator.ServiceConfig
	cache     SegmentCache
	validator TargetValidator
}

// New builds a Runner. cache and validator may be nil to disable the
// translation memory and the target-language check.
func New(service translator.Service, cfg translator.ServiceConfig, cache SegmentCache, validator TargetValidator) *Runner {
	return &Runner{service: service, cfg: cfg, cache: cache, validator: validator}
}

// Run translates the selected batches and writes one result file per batch
// into opts.OutputDir. It returns a summary; per-batch failures are recorded
// there, not returned as an error — only a failure to read the batch
// directory itself aborts the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	batches, err := batch.Load(opts.BatchesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load batches: %w", err)
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no batch files in %s", opts.BatchesDir)
	}

	contexts := previousContexts(batches)
	jobs := selectJobs(batches, opts)
	if len(jobs) == 0 {
		return &Summary{Elapsed: time.Since(start)}, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan batch.Batch)
	outCh := make(chan Outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobCh {
				outCh <- r.runBatch(ctx, b, contexts[b.Number], opts)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, b := range jobs {
			select {
			case jobCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	summary := &Summary{}
	for out := range outCh {
		summary.Outcomes = append(summary.Outcomes, out)
		if out.Err != nil {
			summary.Failed++
			warnf(opts.Warn, "batch %d failed: %v\n", out.Batch, out.Err)
		} else {
			summary.Completed++
			summary.Segments += out.Segments
		}
	}
	sort.Slice(summary.Outcomes, func(i, j int) bool {
		return summary.Outcomes[i].Batch < summary.Outcomes[j].Batch
	})
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// runBatch translates one batch with retries and writes its result file.
func (r *Runner) runBatch(ctx context.Context, b batch.Batch, prevContext string, opts Options) Outcome {
	out := Outcome{Batch: b.Number}
	start := time.Now()
	defer func() { out.Elapsed = time.Since(start) }()

	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		translations, cached, suspect, err := r.translateBatch(ctx, b, prevContext, opts)
		if err != nil {
			lastErr = err
			continue
		}
		if err := batch.WriteResult(opts.OutputDir, batch.Result{
			BatchNumber:  b.Number,
			Translations: translations,
		}); err != nil {
			lastErr = err
			continue
		}
		out.Segments = len(translations)
		out.Cached = cached
		out.Suspect = suspect
		return out
	}
	out.Err = lastErr
	return out
}

// translateBatch resolves each segment through the cache or the service and
// returns the assembled records in the batch's original segment order.
func (r *Runner) translateBatch(ctx context.Context, b batch.Batch, prevContext string, opts Options) (translations []internal.Translation, cached, suspect int, err error) {
	targets := make(map[string]string, len(b.Segments))

	var pending []internal.Segment
	markers := make(map[string][]string)
	for _, seg := range b.Segments {
		if r.cache != nil {
			if hit, found, cacheErr := r.cache.GetCachedSegment(ctx, seg.Source, opts.SourceLang, opts.TargetLang); cacheErr == nil && found {
				targets[seg.ID] = hit
				cached++
				continue
			}
		}
		protected, m := placeholder.Protect(seg.Source)
		markers[seg.ID] = m
		pending = append(pending, internal.Segment{ID: seg.ID, Source: protected})
	}

	if len(pending) > 0 {
		instructions := opts.Instructions
		if hasMarkers(markers) {
			if instructions != "" {
				instructions += " "
			}
			instructions += placeholder.InstructionHint()
		}

		req := translator.BatchRequest{
			Segments:        pending,
			SourceLang:      opts.SourceLang,
			TargetLang:      opts.TargetLang,
			Glossary:        opts.Glossary,
			PreviousContext: prevContext,
			Instructions:    instructions,
		}
		res, svcErr := r.service.TranslateBatch(ctx, r.cfg, req)
		if svcErr != nil {
			return nil, 0, 0, svcErr
		}
		for _, t := range res.Translations {
			if t.Target == nil {
				continue
			}
			target := placeholder.Restore(*t.Target, markers[t.ID])
			targets[t.ID] = target
			if target == "" {
				continue
			}
			if r.validator != nil {
				if ok, _ := r.validator.IsValid(target, opts.TargetLang); !ok {
					suspect++
				}
			}
			if r.cache != nil {
				// Cache keys use the original source, not the protected form.
				if src, found := sourceByID(b.Segments, t.ID); found {
					_ = r.cache.SaveSegment(ctx, src, opts.SourceLang, opts.TargetLang, target, r.service.Name())
				}
			}
		}
	}

	translations = make([]internal.Translation, 0, len(b.Segments))
	for _, seg := range b.Segments {
		translations = append(translations, internal.NewTranslation(seg.ID, seg.Source, targets[seg.ID]))
	}
	return translations, cached, suspect, nil
}

// selectJobs filters batches to the requested numbers, or to those without
// an existing result file when no numbers were given.
func selectJobs(batches []batch.Batch, opts Options) []batch.Batch {
	if len(opts.Batches) > 0 {
		want := make(map[int]bool, len(opts.Batches))
		for _, n := range opts.Batches {
			want[n] = true
		}
		var jobs []batch.Batch
		for _, b := range batches {
			if want[b.Number] {
				jobs = append(jobs, b)
			}
		}
		return jobs
	}

	var jobs []batch.Batch
	for _, b := range batches {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, batch.FileName(b.Number))); err == nil {
			continue // already translated
		}
		jobs = append(jobs, b)
	}
	return jobs
}

// previousContexts maps each batch number to the tail of the preceding
// batch's source text, used as a continuity hint in LLM prompts.
func previousContexts(batches []batch.Batch) map[int]string {
	contexts := make(map[int]string, len(batches))
	for i, b := range batches {
		if i == 0 {
			continue
		}
		prev := batches[i-1]
		if len(prev.Segments) == 0 {
			continue
		}
		last := prev.Segments[len(prev.Segments)-1].Source
		contexts[b.Number] = translator.ExtractContext(last, 0)
	}
	return contexts
}

func hasMarkers(m map[string][]string) bool {
	for _, v := range m {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

func sourceByID(segments []internal.Segment, id string) (string, bool) {
	for _, seg := range segments {
		if seg.ID == id {
			return seg.Source, true
		}
	}
	return "", false
}

func warnf(w io.Writer, format string, args ...any) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format, args...)
}
