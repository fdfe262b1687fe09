package sqldb

import "errors"

// ErrNoRows is the driver-agnostic no-row sentinel. Implementations map
// their own sentinel (e.g. pgx.ErrNoRows) to this one at Scan time.
var ErrNoRows = errors.New("sqldb: no rows in result set")
