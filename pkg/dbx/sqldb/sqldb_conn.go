package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/pkg/errors"
)

// executor is satisfied by both *sqlx.Conn and *sqlx.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// SQLConn - a dedicated database/sql connection.
// Implements dbx.Conn. With auto-commit disabled, statements run inside a *sqlx.Tx that is begun
// on the first statement and after every Commit or Rollback.
type SQLConn struct {
	conn       *sqlx.Conn
	tx         *sqlx.Tx
	bindType   int
	autoCommit bool
	closed     bool
}

func newSQLConn(conn *sqlx.Conn, bindType int) *SQLConn {
	return &SQLConn{conn: conn, bindType: bindType, autoCommit: true}
}

func (c *SQLConn) executor(ctx context.Context) (executor, error) {
	if c.closed {
		return nil, sql.ErrConnDone
	}

	if c.autoCommit {
		return c.conn, nil
	}

	if c.tx == nil {
		tx, err := c.conn.BeginTxx(ctx, nil)
		if err != nil {
			return nil, errors.Wrap(err, "error starting transaction")
		}
		c.tx = tx
	}

	return c.tx, nil
}

// Exec - executes a command and returns the number of rows affected.
func (c *SQLConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := c.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "error reading rows affected")
	}

	return affected, nil
}

// ExecInsert - executes an INSERT and returns the generated key, 0 when none was generated.
//
// Drivers with $n bind variables (PostgreSQL) have no LastInsertId: the statement gets a
// RETURNING clause and the first returned column is read as the key.
func (c *SQLConn) ExecInsert(ctx context.Context, query string, args ...any) (int64, error) {
	if c.bindType == sqlx.DOLLAR {
		return c.insertReturning(ctx, query, args...)
	}

	result, err := c.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		// the driver does not report generated keys
		return 0, nil
	}

	return id, nil
}

func (c *SQLConn) insertReturning(ctx context.Context, query string, args ...any) (int64, error) {
	rows, err := c.Query(ctx, dbx.WithReturning(query), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, rows.Err()
	}

	values, err := rows.Values()
	if err != nil {
		return 0, err
	}

	if len(values) > 0 {
		if n, ok, convErr := dbx.ToInt64(values[0]); convErr == nil && ok {
			return n, nil
		}
	}

	return 0, nil
}

func (c *SQLConn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ex, err := c.executor(ctx)
	if err != nil {
		return nil, err
	}

	result, err := ex.ExecContext(ctx, sqlx.Rebind(c.bindType, query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing statement")
	}

	return result, nil
}

// Query - executes a query and returns its cursor.
func (c *SQLConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	ex, err := c.executor(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := ex.QueryxContext(ctx, sqlx.Rebind(c.bindType, query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}

	return newSQLRows(rows)
}

// SetAutoCommit - switches the auto-commit mode. Enabling it commits the pending transaction.
func (c *SQLConn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	if autoCommit && c.tx != nil {
		if err := c.Commit(ctx); err != nil {
			return err
		}
	}

	c.autoCommit = autoCommit

	return nil
}

// Commit - commits the pending transaction, if any.
func (c *SQLConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	tx := c.tx
	c.tx = nil

	if err := tx.Commit(); err != nil {
		logx.GetLogger().LogError(ctx, "error during transaction commit", err)
		return errors.Wrap(err, "error during transaction commit")
	}

	return nil
}

// Rollback - rolls back the pending transaction, if any.
func (c *SQLConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	tx := c.tx
	c.tx = nil

	if err := tx.Rollback(); err != nil {
		logx.GetLogger().LogError(ctx, "error Rolling Back transaction", err)
		return errors.Wrap(err, "error Rolling Back transaction")
	}

	return nil
}

// Close - rolls back a pending transaction and closes the connection.
func (c *SQLConn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}

	if c.tx != nil {
		_ = c.Rollback(ctx)
	}

	c.closed = true

	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, "error closing connection")
	}

	return nil
}

// IsClosed - reports whether the connection has been closed.
func (c *SQLConn) IsClosed() bool {
	return c.closed
}

// SQLRows - adapts *sqlx.Rows to dbx.Rows.
type SQLRows struct {
	rows    *sqlx.Rows
	columns []string
}

func newSQLRows(rows *sqlx.Rows) (*SQLRows, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "error reading columns")
	}

	return &SQLRows{rows: rows, columns: columns}, nil
}

// Next - advances the cursor.
func (r *SQLRows) Next() bool {
	return r.rows.Next()
}

// Columns - the column labels.
func (r *SQLRows) Columns() []string {
	return r.columns
}

// Values - the raw values of the current row.
func (r *SQLRows) Values() ([]any, error) {
	values, err := r.rows.SliceScan()
	if err != nil {
		return nil, errors.Wrap(err, "error reading row values")
	}

	return values, nil
}

// Err - the error that ended the iteration, if any.
func (r *SQLRows) Err() error {
	return r.rows.Err()
}

// Close - releases the cursor.
func (r *SQLRows) Close() {
	_ = r.rows.Close()
}
