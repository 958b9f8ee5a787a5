package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
)

// errNoRowCount is reported by noRowCountDriver results.
var errNoRowCount = errors.New("rows affected not supported")

// noRowCountDriver accepts every statement but cannot report affected rows.
type noRowCountDriver struct{}

func (noRowCountDriver) Open(string) (driver.Conn, error) { return noRowCountConn{}, nil }

type noRowCountConn struct{}

func (noRowCountConn) Prepare(string) (driver.Stmt, error) { return noRowCountStmt{}, nil }
func (noRowCountConn) Close() error { return nil }
func (noRowCountConn) Begin() (driver.Tx, error) { return noRowCountTx{}, nil }

type noRowCountTx struct{}

func (noRowCountTx) Commit() error { return nil }
func (noRowCountTx) Rollback() error { return nil }

type noRowCountStmt struct{}

func (noRowCountStmt) Close() error { return nil }
func (noRowCountStmt) NumInput() int { return -1 }
func (noRowCountStmt) Exec([]driver.Value) (driver.Result, error) {
	return noRowCountResult{}, nil
}
func (noRowCountStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("query not supported")
}

type noRowCountResult struct{}

func (noRowCountResult) LastInsertId() (int64, error) { return 0, nil }
func (noRowCountResult) RowsAffected() (int64, error) { return 0, errNoRowCount }

func init() {
	sql.Register("norowcount", noRowCountDriver{})
}
