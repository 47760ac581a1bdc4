package persistence

import (
	"context"
	"database/sql"
)

// Queryer is the subset of database operations repositories run on. Both
// *sql.DB and *sql.Tx satisfy it, which is how transaction scope is passed
// explicitly: repositories default to the pooled handle and are rebound to a
// transaction via WithTx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
