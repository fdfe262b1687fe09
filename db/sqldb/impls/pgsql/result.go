package pgsql

import (
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/libresign/libresign/db/sqldb"
)

type Result struct {
	tag pgconn.CommandTag
}

// Ensure pgsql.Result implements sqldb.Result
var _ sqldb.Result = (*Result)(nil)

func (r *Result) RowsAffected() int64 {
	return r.tag.RowsAffected()
}
