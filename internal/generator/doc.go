// Package generator runs the end-to-end tag generation pipeline:
// resolve dependencies -> clear scratch -> extract sources -> filter
// existing directories -> compose command -> run the indexer subprocess.
//
// The pipeline is deliberately single-threaded and sequential; each stage
// blocks until complete. One run at a time may be in flight per generator —
// a second Run while one is active fails fast with
// ErrGenerationInProgress, because concurrent runs would race destructively
// on the scratch directory's clear/extract steps.
//
// Failure policy per stage: resolution and scratch-clear failures abort the
// run before anything else happens; per-archive extraction failures are
// counted and skipped; a subprocess failure is the run's terminal failure,
// with the child's exit code and stderr passed through undigested.
package generator
