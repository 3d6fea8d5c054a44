package pgxdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/pkg/errors"
)

//###################################
//#        Postgres Connection       #
//###################################

// executor is satisfied by both *pgx.Conn and pgx.Tx.
type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresConn - a single pgx connection.
// Implements dbx.Conn. With auto-commit disabled, statements run inside a pgx.Tx that is begun
// on the first statement and after every Commit or Rollback.
type PostgresConn struct {
	conn       *pgx.Conn
	tx         pgx.Tx
	autoCommit bool
}

func newPostgresConn(conn *pgx.Conn) *PostgresConn {
	return &PostgresConn{conn: conn, autoCommit: true}
}

func (c *PostgresConn) executor(ctx context.Context) (executor, error) {
	if c.autoCommit {
		return c.conn, nil
	}

	if c.tx == nil {
		tx, err := c.conn.Begin(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "error starting transaction")
		}
		c.tx = tx
	}

	return c.tx, nil
}

// Exec - executes a command and returns the number of rows affected.
func (c *PostgresConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ex, err := c.executor(ctx)
	if err != nil {
		return 0, err
	}

	result, err := ex.Exec(ctx, rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "error executing statement")
	}

	return result.RowsAffected(), nil
}

// ExecInsert - executes an INSERT and returns the generated key, 0 when none was generated.
//
// PostgreSQL has no generated keys API: the statement gets a RETURNING clause, unless it already
// has one, and the first column of the first returned row is read as the key.
func (c *PostgresConn) ExecInsert(ctx context.Context, query string, args ...any) (int64, error) {
	rows, err := c.Query(ctx, dbx.WithReturning(query), args...)
	if err != nil {
		return 0, err
	}

	var id int64

	if rows.Next() {
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			return 0, err
		}

		if len(values) > 0 {
			if n, ok, convErr := dbx.ToInt64(values[0]); convErr == nil && ok {
				id = n
			}
		}
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return 0, err
	}

	return id, nil
}

// Query - executes a query and returns its cursor.
func (c *PostgresConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	ex, err := c.executor(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := ex.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}

	return newPostgresRows(rows), nil
}

// SetAutoCommit - switches the auto-commit mode. Enabling it commits the pending transaction.
func (c *PostgresConn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	if autoCommit && c.tx != nil {
		if err := c.Commit(ctx); err != nil {
			return err
		}
	}

	c.autoCommit = autoCommit

	return nil
}

// Commit - commits the pending transaction, if any.
func (c *PostgresConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	tx := c.tx
	c.tx = nil

	if err := tx.Commit(ctx); err != nil {
		logx.GetLogger().LogError(ctx, "error during transaction commit", err)
		return errors.Wrap(err, "error during transaction commit")
	}

	return nil
}

// Rollback - rolls back the pending transaction, if any.
func (c *PostgresConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	tx := c.tx
	c.tx = nil

	if err := tx.Rollback(ctx); err != nil {
		logx.GetLogger().LogError(ctx, "error Rolling Back transaction", err)
		return errors.Wrap(err, "error Rolling Back transaction")
	}

	return nil
}

// Close - closes the physical connection. A pending transaction is discarded by the server.
func (c *PostgresConn) Close(ctx context.Context) error {
	c.tx = nil

	if err := c.conn.Close(ctx); err != nil {
		return errors.Wrap(err, "error closing connection")
	}

	return nil
}

// IsClosed - reports whether the connection has been closed.
func (c *PostgresConn) IsClosed() bool {
	return c.conn.IsClosed()
}

//###################################
//#          Postgres Rows           #
//###################################

// PostgresRows - adapts pgx.Rows to dbx.Rows.
type PostgresRows struct {
	rows    pgx.Rows
	columns []string
}

func newPostgresRows(rows pgx.Rows) *PostgresRows {
	fields := rows.FieldDescriptions()

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	return &PostgresRows{rows: rows, columns: columns}
}

// Next - advances the cursor.
func (r *PostgresRows) Next() bool {
	return r.rows.Next()
}

// Columns - the column labels.
func (r *PostgresRows) Columns() []string {
	return r.columns
}

// Values - the decoded values of the current row.
func (r *PostgresRows) Values() ([]any, error) {
	values, err := r.rows.Values()
	if err != nil {
		return nil, errors.Wrap(err, "error reading row values")
	}

	return values, nil
}

// Err - the error that ended the iteration, if any.
func (r *PostgresRows) Err() error {
	return r.rows.Err()
}

// Close - releases the cursor.
func (r *PostgresRows) Close() {
	r.rows.Close()
}
