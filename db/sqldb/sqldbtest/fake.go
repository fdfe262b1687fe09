// Package sqldbtest provides a scripted in-memory sqldb.Client for store
// tests. Each statement consumes the next scripted response in FIFO order.
package sqldbtest

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/libresign/libresign/db/sqldb"
)

// Response is one scripted statement outcome. Rows feeds QueryRow/QueryRows
// (QueryRow reads the first row, or sqldb.ErrNoRows when empty); Affected
// feeds Exec results.
type Response struct {
	Rows     [][]any
	Affected int64
	Err      error
}

// Call records one executed statement.
type Call struct {
	Query string
	Args  []any
	InTx  bool
}

type Fake struct {
	script []Response
	Calls  []Call

	Committed  int
	RolledBack int
}

var _ sqldb.Client = (*Fake)(nil)

func New() *Fake { return &Fake{} }

// Script appends responses consumed by subsequent statements.
func (f *Fake) Script(responses ...Response) {
	f.script = append(f.script, responses...)
}

func (f *Fake) next() Response {
	if len(f.script) == 0 {
		return Response{}
	}
	resp := f.script[0]
	f.script = f.script[1:]
	return resp
}

func (f *Fake) record(query string, args []any, inTx bool) {
	f.Calls = append(f.Calls, Call{Query: query, Args: args, InTx: inTx})
}

// --- sqldb.Client surface ---

func (f *Fake) Init() error                        { return nil }
func (f *Fake) Open(_ context.Context) error       { return nil }
func (f *Fake) Close() error                       { return nil }
func (f *Fake) GetHandle() sqldb.Handle            { return f }
func (f *Fake) GetConf() *sqldb.Conf               { return &sqldb.Conf{Type: "fake"} }
func (f *Fake) GetDSN() string                     { return "fake" }
func (f *Fake) Ping(_ context.Context) error       { return nil }

func (f *Fake) Exec(_ context.Context, query string, args ...any) (sqldb.Result, error) {
	f.record(query, args, false)
	resp := f.next()
	if resp.Err != nil {
		return nil, resp.Err
	}
	return fakeResult{affected: resp.Affected}, nil
}

func (f *Fake) QueryRows(_ context.Context, query string, args ...any) (sqldb.Rows, error) {
	f.record(query, args, false)
	resp := f.next()
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &fakeRows{rows: resp.Rows, cursor: -1}, nil
}

func (f *Fake) QueryRow(_ context.Context, query string, args ...any) sqldb.Row {
	f.record(query, args, false)
	resp := f.next()
	return fakeRow{resp: resp}
}

func (f *Fake) BeginTx(_ context.Context) (sqldb.Tx, error) {
	return &fakeTx{fake: f}, nil
}

// --- rows / row / result / tx ---

type fakeResult struct{ affected int64 }

func (r fakeResult) RowsAffected() int64 { return r.affected }

type fakeRows struct {
	rows   [][]any
	cursor int
}

func (r *fakeRows) Next() bool {
	r.cursor++
	return r.cursor < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assignRow(r.rows[r.cursor], dest)
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

type fakeRow struct{ resp Response }

func (r fakeRow) Scan(dest ...any) error {
	if r.resp.Err != nil {
		return r.resp.Err
	}
	if len(r.resp.Rows) == 0 {
		return sqldb.ErrNoRows
	}
	return assignRow(r.resp.Rows[0], dest)
}

type fakeTx struct{ fake *Fake }

func (t *fakeTx) Commit(_ context.Context) error {
	t.fake.Committed++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.fake.RolledBack++
	return nil
}

func (t *fakeTx) Exec(_ context.Context, query string, args ...any) (sqldb.Result, error) {
	t.fake.record(query, args, true)
	resp := t.fake.next()
	if resp.Err != nil {
		return nil, resp.Err
	}
	return fakeResult{affected: resp.Affected}, nil
}

func (t *fakeTx) Query(_ context.Context, query string, args ...any) (sqldb.Rows, error) {
	t.fake.record(query, args, true)
	resp := t.fake.next()
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &fakeRows{rows: resp.Rows, cursor: -1}, nil
}

func assignRow(row []any, dest []any) error {
	if len(row) != len(dest) {
		return fmt.Errorf("sqldbtest: %d scripted values for %d scan targets", len(row), len(dest))
	}
	for i, val := range row {
		if scanner, ok := dest[i].(sql.Scanner); ok {
			if err := scanner.Scan(val); err != nil {
				return err
			}
			continue
		}
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("sqldbtest: scan target %d is not a pointer", i)
		}
		elem := dv.Elem()
		if val == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		sv := reflect.ValueOf(val)
		if !sv.Type().ConvertibleTo(elem.Type()) {
			return fmt.Errorf("sqldbtest: cannot scan %T into %s", val, elem.Type())
		}
		elem.Set(sv.Convert(elem.Type()))
	}
	return nil
}
