package simpledb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/logx"
	"github.com/pkg/errors"
)

var errAlreadyExecuted = errors.New("statement already executed")

// Sql - accumulates a statement and its positional arguments, then executes it once.
//
// A Sql owns one connection for its whole life. Unless the connection is the ambient transaction
// of the SimpleDb that created it, the connection is closed by the terminal operation, whatever
// its outcome. Calling a second terminal operation returns an errorx.ExecutionError.
type Sql struct {
	db          *SimpleDb
	conn        dbx.Conn
	closeOnDone bool
	txID        string

	fragments []string
	args      []any
	err       error
	executed  bool
}

func newSql(db *SimpleDb, conn dbx.Conn, closeOnDone bool, txID string) *Sql {
	return &Sql{db: db, conn: conn, closeOnDone: closeOnDone, txID: txID}
}

// Append adds a fragment to the statement, separated by a single space, and its values to the
// arguments.
func (s *Sql) Append(fragment string, values ...any) *Sql {
	s.fragments = append(s.fragments, fragment)
	s.args = append(s.args, values...)

	return s
}

// AppendIn adds a fragment whose first `?` is expanded into one placeholder per value:
//
//	AppendIn("WHERE id IN (?)", 1, 2, 3) // WHERE id IN (?, ?, ?)
//
// A single slice argument is expanded into its elements. Without values, or with an empty slice,
// the builder records an errorx.InvalidArgumentError returned by its terminal operation.
func (s *Sql) AppendIn(fragment string, values ...any) *Sql {
	if s.err != nil {
		return s
	}

	if len(values) == 0 {
		s.err = errorx.NewInvalidArgumentError("AppendIn requires at least one value: '%s'", fragment)
		return s
	}

	idx := strings.IndexByte(fragment, '?')
	if idx < 0 {
		s.err = errorx.NewInvalidArgumentError("AppendIn requires a placeholder: '%s'", fragment)
		return s
	}

	var list any = values
	if len(values) == 1 {
		list = values[0]
	}

	head, args, err := sqlx.In(fragment[:idx+1], list)
	if err != nil {
		s.err = errorx.NewInvalidArgumentError("AppendIn '%s': %v", fragment, err)
		return s
	}

	return s.Append(head+fragment[idx+1:], args...)
}

// String - the statement text.
func (s *Sql) String() string {
	return strings.Join(s.fragments, " ")
}

// Args - a copy of the positional arguments.
func (s *Sql) Args() []any {
	return append([]any(nil), s.args...)
}

// Insert executes the statement as an insert and returns the first generated key, 0 if none.
func (s *Sql) Insert(ctx context.Context) (int64, error) {
	var id int64

	err := s.execute(ctx, func(query string) error {
		var err error
		id, err = s.conn.ExecInsert(ctx, query, s.args...)
		return err
	})

	return id, err
}

// Update executes the statement and returns the number of rows affected.
func (s *Sql) Update(ctx context.Context) (int64, error) {
	var affected int64

	err := s.execute(ctx, func(query string) error {
		var err error
		affected, err = s.conn.Exec(ctx, query, s.args...)
		return err
	})

	return affected, err
}

// Delete executes the statement and returns the number of rows affected.
func (s *Sql) Delete(ctx context.Context) (int64, error) {
	return s.Update(ctx)
}

// SelectRows executes the query and returns every row, with its columns in select-list order.
func (s *Sql) SelectRows(ctx context.Context) ([]dbx.Row, error) {
	out := make([]dbx.Row, 0)

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		out = append(out, dbx.NewRow(columns, values))
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SelectRow executes the query and returns its first row, nil when there is none.
func (s *Sql) SelectRow(ctx context.Context) (*dbx.Row, error) {
	var out *dbx.Row

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		row := dbx.NewRow(columns, values)
		out = &row
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SelectRows executes the query of s and maps every row onto a new T.
// See dbx.RowMapper for the column to field rules.
func SelectRows[T any](ctx context.Context, s *Sql) ([]T, error) {
	out := make([]T, 0)

	var mapper *dbx.RowMapper[T]

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		if mapper == nil {
			m, err := dbx.NewRowMapper[T](columns)
			if err != nil {
				return false, err
			}
			mapper = m
		}

		v, err := mapper.Map(values)
		if err != nil {
			return false, err
		}

		out = append(out, v)

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SelectRow executes the query of s and maps its first row onto a new T, nil when there is none.
func SelectRow[T any](ctx context.Context, s *Sql) (*T, error) {
	var out *T

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		v, err := dbx.MapRow[T](dbx.NewRow(columns, values))
		if err != nil {
			return false, err
		}
		out = &v

		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SelectLong returns the first column of the first row as an int64.
// The result is invalid when there is no row or the value is NULL.
func (s *Sql) SelectLong(ctx context.Context) (sql.Null[int64], error) {
	return selectScalar(ctx, s, "int64", dbx.ToInt64)
}

// SelectString returns the first column of the first row as a string.
// The result is invalid when there is no row or the value is NULL.
func (s *Sql) SelectString(ctx context.Context) (sql.Null[string], error) {
	return selectScalar(ctx, s, "string", dbx.ToString)
}

// SelectBoolean returns the first column of the first row as a bool.
// The result is invalid when there is no row or the value is NULL.
func (s *Sql) SelectBoolean(ctx context.Context) (sql.Null[bool], error) {
	return selectScalar(ctx, s, "bool", dbx.ToBool)
}

// SelectLongs returns the first column of every row as an int64, NULL values as invalid entries.
func (s *Sql) SelectLongs(ctx context.Context) ([]sql.Null[int64], error) {
	out := make([]sql.Null[int64], 0)

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		n, ok, err := dbx.ToInt64(values[0])
		if err != nil {
			return false, errorx.NewMappingError(err, columns[0], "int64")
		}

		out = append(out, sql.Null[int64]{V: n, Valid: ok})

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SelectDatetime returns the first column of the first row as a time.Time, typically the result
// of `SELECT NOW()`. A missing row or a NULL value is an error.
func (s *Sql) SelectDatetime(ctx context.Context) (time.Time, error) {
	v, err := selectScalar(ctx, s, "time.Time", dbx.ToTime)
	if err != nil {
		return time.Time{}, err
	}

	if !v.Valid {
		return time.Time{}, errorx.NewExecutionError(errors.New("no datetime returned"), s.String())
	}

	return v.V, nil
}

func selectScalar[V any](ctx context.Context, s *Sql, kind string, coerce func(any) (V, bool, error)) (sql.Null[V], error) {
	var out sql.Null[V]

	err := s.query(ctx, func(columns []string, values []any) (bool, error) {
		v, ok, err := coerce(values[0])
		if err != nil {
			return false, errorx.NewMappingError(err, columns[0], kind)
		}
		out = sql.Null[V]{V: v, Valid: ok}

		return false, nil
	})
	if err != nil {
		return sql.Null[V]{}, err
	}

	return out, nil
}

// query runs the statement as a query and hands each row to fn until fn returns false.
func (s *Sql) query(ctx context.Context, fn func(columns []string, values []any) (bool, error)) error {
	return s.execute(ctx, func(query string) error {
		rows, err := s.conn.Query(ctx, query, s.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns := rows.Columns()
		if len(columns) == 0 {
			return errors.New("query returned no columns")
		}

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}

			more, err := fn(columns, values)
			if err != nil {
				return err
			}

			if !more {
				return nil
			}
		}

		return rows.Err()
	})
}

// execute guards the single use of the builder and releases the connection on every path.
func (s *Sql) execute(ctx context.Context, run func(query string) error) error {
	query := s.String()

	if s.executed {
		return errorx.NewExecutionError(errAlreadyExecuted, query)
	}

	s.executed = true

	defer s.release(ctx)

	if s.err != nil {
		return s.err
	}

	s.db.logStatement(ctx, s.txID, query, s.args)

	if err := run(query); err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("Error executing '%s'", query), err)
		return errorx.NewExecutionError(err, query)
	}

	return nil
}

func (s *Sql) release(ctx context.Context) {
	if !s.closeOnDone {
		return
	}

	s.db.closeQuietly(ctx, s.conn)
}
