// Package history persists a record of past tag-generation runs in SQLite.
//
// Recording is best effort: a run that generated its tag file but failed to
// write history is still a successful run. The store exists for the status
// surfaces (CLI history subcommand, MCP tag_run_history tool), not for
// correctness of generation.
//
// Two SQLite drivers are supported behind build tags: the default pure Go
// build uses modernc.org/sqlite, while -tags cgo_sqlite switches to
// github.com/mattn/go-sqlite3. See build_purego.go and build_cgo.go.
package history
