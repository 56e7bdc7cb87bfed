// Package extract walks a dependency report and materializes every source
// artifact into the scratch directory.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"deptags/internal/logging"
	"deptags/internal/resolver"
)

// Materializer extracts matching entries of one archive into the scratch
// directory. *scratch.Manager satisfies it.
type Materializer interface {
	Materialize(archivePath string, keep func(name string) bool) error
}

// Summary aggregates one extraction pass over a report.
type Summary struct {
	Attempted int
	Failed    int

	// Errors holds one message per failed archive, in report order.
	Errors []string
}

// Extractor runs the per-archive extraction loop.
type Extractor struct {
	scratch Materializer
	log     *slog.Logger
}

// New creates an Extractor writing into the given materializer.
func New(scratch Materializer) *Extractor {
	return &Extractor{
		scratch: scratch,
		log:     logging.New("extract"),
	}
}

// Extract materializes every source artifact in the report. A failure on one
// archive is logged, counted, and skipped; the loop always continues to the
// next archive, since a partially covered index is worth more than none.
// Only context cancellation stops the loop early.
func (e *Extractor) Extract(ctx context.Context, report *resolver.Report, keep func(name string) bool) *Summary {
	sum := &Summary{}

	for _, artifact := range report.Sources() {
		if ctx.Err() != nil {
			break
		}

		sum.Attempted++
		if err := e.scratch.Materialize(artifact.File, keep); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", artifact.File, err))
			e.log.Error("failed to extract source archive",
				"archive", artifact.File, "error", err)
			continue
		}
		e.log.Debug("extracted source archive", "archive", artifact.File)
	}

	return sum
}
