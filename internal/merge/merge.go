// Package merge runs a finalized working order through a document
// concatenation backend, tolerating files that fail to append.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/agusx1211/docmerge/internal/sequence"
)

var (
	// ErrNothingToMerge is returned for an empty working order.
	ErrNothingToMerge = errors.New("nothing to merge")
	// ErrWriteFailed wraps a failure to write the combined output.
	ErrWriteFailed = errors.New("write failed")
)

// Metadata keys embedded into every combined output.
const (
	MetaSourceFiles = "SourceFiles"
	MetaCreator     = "Creator"
)

// SourceSeparator joins display names in the SourceFiles metadata entry.
const SourceSeparator = "; "

// Concatenator is the document backend: it accumulates appended files and
// writes them out as one document.
type Concatenator interface {
	Append(f sequence.CandidateFile) error
	EmbedMetadata(meta map[string]string) error
	Finalize(target string) error
}

// AppendError records why one file could not be appended.
type AppendError struct {
	File   sequence.CandidateFile
	Reason error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("failed to append %s: %v", e.File.Name, e.Reason)
}

func (e *AppendError) Unwrap() error { return e.Reason }

// ItemResult is the per-file outcome. Err is nil on success and an
// *AppendError otherwise.
type ItemResult struct {
	File sequence.CandidateFile
	Err  error
}

// Outcome collects the result of one merge attempt.
type Outcome struct {
	Target string
	Items  []ItemResult
}

// Attempted returns the number of files the executor tried to append.
func (o *Outcome) Attempted() int { return len(o.Items) }

// Failures returns the append errors in order.
func (o *Outcome) Failures() []*AppendError {
	var out []*AppendError
	for _, it := range o.Items {
		var ae *AppendError
		if errors.As(it.Err, &ae) {
			out = append(out, ae)
		}
	}
	return out
}

// Succeeded returns the number of files appended without error.
func (o *Outcome) Succeeded() int { return len(o.Items) - len(o.Failures()) }

// ProgressFunc is called after every item with the number of items attempted
// so far, the total and the file just attempted.
type ProgressFunc func(done, total int, f sequence.CandidateFile)

// Fraction converts a progress callback's counters into [0,1].
func Fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// Executor drives a Concatenator over a working order.
type Executor struct {
	Backend  Concatenator
	Progress ProgressFunc
	Logger   *slog.Logger
	// Creator is stored under MetaCreator when set.
	Creator string
}

func (x *Executor) logger() *slog.Logger {
	if x.Logger != nil {
		return x.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run appends every file in order, embeds the list of attempted files as
// metadata and writes the result to target. Per-file failures are recorded in
// the outcome and never stop the run. A failure to write the output returns
// an error wrapping ErrWriteFailed together with the outcome.
//
// ctx is only checked between files. A cancelled run returns ctx.Err() and the
// partial outcome without writing anything.
func (x *Executor) Run(ctx context.Context, files []sequence.CandidateFile, target string) (*Outcome, error) {
	if len(files) == 0 {
		return nil, ErrNothingToMerge
	}
	if x.Backend == nil {
		return nil, errors.New("merge: no backend configured")
	}
	log := x.logger().With("target", target)
	out := &Outcome{Target: target, Items: make([]ItemResult, 0, len(files))}
	snapshot := append([]sequence.CandidateFile(nil), files...)
	total := len(snapshot)

	for i, f := range snapshot {
		if err := ctx.Err(); err != nil {
			log.Warn("merge cancelled", "attempted", i, "total", total)
			return out, err
		}
		res := ItemResult{File: f}
		if err := x.Backend.Append(f); err != nil {
			res.Err = &AppendError{File: f, Reason: err}
			log.Warn("append failed", "file", f.Path, "error", err)
		} else {
			log.Debug("appended", "file", f.Path)
		}
		out.Items = append(out.Items, res)
		if x.Progress != nil {
			x.Progress(i+1, total, f)
		}
	}

	meta := map[string]string{
		MetaSourceFiles: strings.Join(sequence.Names(snapshot), SourceSeparator),
	}
	if x.Creator != "" {
		meta[MetaCreator] = x.Creator
	}
	if err := x.Backend.EmbedMetadata(meta); err != nil {
		log.Error("embedding metadata failed", "error", err)
		return out, fmt.Errorf("%w: failed to embed metadata: %w", ErrWriteFailed, err)
	}
	if err := x.Backend.Finalize(target); err != nil {
		log.Error("writing output failed", "error", err)
		return out, fmt.Errorf("%w: %s: %w", ErrWriteFailed, target, err)
	}
	log.Info("merge finished", "attempted", out.Attempted(), "failed", len(out.Failures()))
	return out, nil
}
