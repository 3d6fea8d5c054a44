package dbx

import (
	"context"
)

// Driver defines the capability of opening physical connections to a database.
//
// Implementations must hand out a new, exclusively owned connection on every call to Open.
// There is no pooling at this level: closing the returned Conn closes the physical connection.
//
// Example Implementation:
//
//	A concrete implementation of Driver might use a specific database driver like pgx for PostgreSQL,
//	opening a single pgx.Conn per call, while another one wraps any database/sql driver.
type Driver interface {
	Name() string
	Open(ctx context.Context, conf ConnConfig) (Conn, error)
}

// Conn defines a single database connection.
//
// Statements are written with positional `?` placeholders; the implementation rebinds them to its
// native bind variables. Values are bound positionally, in order.
//
// Responsibilities of Conn include:
//   - Executing statements that modify data, returning the affected rows count or the generated key.
//   - Executing queries, returning a Rows cursor that must be closed by the caller.
//   - Managing the auto-commit mode of the session. With auto-commit disabled, a transaction is
//     started before the first statement and again after every Commit or Rollback.
//   - Closing the physical connection.
//
// A Conn is not safe for concurrent use.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	ExecInsert(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	SetAutoCommit(ctx context.Context, autoCommit bool) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
	IsClosed() bool
}

// Rows defines a forward-only cursor over a query result.
//
// Columns returns the column labels in select-list order, Values returns the raw values of the
// current row as decoded by the driver (nil for SQL NULL).
type Rows interface {
	Next() bool
	Columns() []string
	Values() ([]any, error)
	Err() error
	Close()
}
