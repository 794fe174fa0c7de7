// Package sqliteexternal links the CGO SQLite driver (mattn/go-sqlite3)
// into playfair builds that ask for it:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/playfair
//
// Without the tag the journal uses the pure Go driver selected in
// github.com/FocuswithJustin/playfair/core/sqlite, which cross-compiles and
// needs no C toolchain. The CGO driver is faster on large journals.
package sqliteexternal
