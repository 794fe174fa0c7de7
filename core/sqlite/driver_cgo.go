//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3, selected with the cgo_sqlite
// build tag. The driver import lives in contrib/sqlite-external.
package sqlite

import (
	"fmt"

	sqliteexternal "github.com/FocuswithJustin/playfair/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)

// dsn spells connection options the way mattn/go-sqlite3 reads them.
func dsn(path string, readOnly bool) string {
	if path == ":memory:" {
		return fmt.Sprintf("file::memory:?_foreign_keys=1&_busy_timeout=%d", busyTimeoutMS)
	}
	s := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=%d", path, busyTimeoutMS)
	if readOnly {
		s += "&mode=ro"
	}
	return s
}
