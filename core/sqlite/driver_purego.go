//go:build !cgo_sqlite

package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// dsn spells connection options the way modernc.org/sqlite reads them.
func dsn(path string, readOnly bool) string {
	if path == ":memory:" {
		return fmt.Sprintf("file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", busyTimeoutMS)
	}
	s := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, busyTimeoutMS)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
