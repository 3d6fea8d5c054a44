package simpledb_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/simpledb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Article matches the ARTICLE table
type Article struct {
	ID           int64
	Title        string
	Body         string
	CreatedDate  time.Time
	ModifiedDate *time.Time
	IsBlind      bool
}

var articleColumns = []string{"id", "title", "body", "created_date", "modified_date", "is_blind"}

func TestSql_AppendJoinsFragmentsAndArgs(t *testing.T) {
	db, _, _ := newTestDb(t)

	sql, err := db.GenSql(context.Background())
	require.NoError(t, err)

	sql.Append("SELECT *").
		Append("FROM article").
		Append("WHERE title = ?", "x").
		Append("AND is_blind = ?", false).
		Append("AND id BETWEEN ? AND ?", 1, 10)

	assert.Equal(t, "SELECT * FROM article WHERE title = ? AND is_blind = ? AND id BETWEEN ? AND ?", sql.String())
	assert.Equal(t, []any{"x", false, 1, 10}, sql.Args())
	assert.Equal(t, strings.Count(sql.String(), "?"), len(sql.Args()))
}

func TestSql_AppendIn(t *testing.T) {
	db, _, _ := newTestDb(t)
	ctx := context.Background()

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	sql.Append("SELECT id FROM article WHERE is_blind = ?", false).AppendIn("AND id IN (?)", 1, 2, 3)

	assert.Equal(t, "SELECT id FROM article WHERE is_blind = ? AND id IN (?, ?, ?)", sql.String())
	assert.Equal(t, []any{false, 1, 2, 3}, sql.Args())

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	sql.Append("SELECT id FROM article").AppendIn("WHERE id IN (?)", []int64{4, 5})

	assert.Equal(t, "SELECT id FROM article WHERE id IN (?, ?)", sql.String())
	assert.Equal(t, []any{int64(4), int64(5)}, sql.Args())

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	sql.AppendIn("WHERE id IN (?)", 7)

	assert.Equal(t, "WHERE id IN (?)", sql.String())
	assert.Equal(t, []any{7}, sql.Args())
}

func TestSql_AppendInWithoutValues(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	rows, err := sql.Append("SELECT * FROM article").AppendIn("WHERE id IN (?)").SelectRows(ctx)
	assert.Nil(t, rows)
	assert.True(t, errorx.IsInvalidArgumentError(err))
	assert.Equal(t, 0, driver.open())

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)

	_, err = sql.Append("DELETE FROM article").AppendIn("WHERE id IN (?)", []int64{}).Delete(ctx)
	assert.True(t, errorx.IsInvalidArgumentError(err))
	assert.Equal(t, 0, driver.open())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_Insert(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	mock.ExpectExec("INSERT INTO article SET title = ?, body = ?").
		WithArgs("title", "body").
		WillReturnResult(sqlmock.NewResult(15, 1))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	id, err := sql.Append("INSERT INTO article SET").
		Append("title = ?,", "title").
		Append("body = ?", "body").
		Insert(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.Equal(t, 0, driver.open())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_ReuseAfterTerminal(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	mock.ExpectExec("DELETE FROM article WHERE id = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	sql.Append("DELETE FROM article WHERE id = ?", 1)

	affected, err := sql.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = sql.Delete(ctx)
	require.Error(t, err)
	assert.True(t, errorx.IsExecutionError(err))
	assert.Contains(t, err.Error(), "already executed")

	assert.Equal(t, 1, driver.closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_StatementErrorReleasesConnection(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	mock.ExpectExec("UPDATE article SET id = ?").WithArgs(1).WillReturnError(errors.New("duplicate key"))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	_, err = sql.Append("UPDATE article SET id = ?", 1).Update(ctx)
	require.Error(t, err)
	assert.True(t, errorx.IsExecutionError(err))
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Equal(t, 0, driver.open())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectRows(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT * FROM article WHERE id IN (?, ?) ORDER BY id").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(articleColumns).
			AddRow(int64(1), "first", "body 1", created, nil, false).
			AddRow(int64(2), "second", "body 2", created, created, true))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	rows, err := sql.Append("SELECT * FROM article").AppendIn("WHERE id IN (?)", 1, 2).Append("ORDER BY id").SelectRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, articleColumns, rows[0].Columns())

	title, ok := rows[1].Get("title")
	assert.True(t, ok)
	assert.Equal(t, "second", title)

	modified, ok := rows[0].Get("modified_date")
	assert.True(t, ok)
	assert.Nil(t, modified)

	assert.Equal(t, 0, driver.open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectRow(t *testing.T) {
	ctx := context.Background()
	db, mock, _ := newTestDb(t)

	mock.ExpectQuery("SELECT id, title FROM article WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(1), "first"))
	mock.ExpectQuery("SELECT id, title FROM article WHERE id = ?").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	row, err := sql.Append("SELECT id, title FROM article WHERE id = ?", 1).SelectRow(ctx)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, map[string]any{"id": int64(1), "title": "first"}, row.ToMap())

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	row, err = sql.Append("SELECT id, title FROM article WHERE id = ?", 99).SelectRow(ctx)
	require.NoError(t, err)
	assert.Nil(t, row)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectRows_Typed(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT * FROM article ORDER BY id").
		WillReturnRows(sqlmock.NewRows(articleColumns).
			AddRow(int64(1), "first", "body 1", created, nil, int64(0)).
			AddRow(int64(2), "second", "body 2", "2024-05-01 08:30:00", created, int64(1)))
	mock.ExpectQuery("SELECT * FROM article WHERE id = ?").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	articles, err := simpledb.SelectRows[Article](ctx, sql.Append("SELECT * FROM article ORDER BY id"))
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, Article{ID: 1, Title: "first", Body: "body 1", CreatedDate: created}, articles[0])
	assert.Equal(t, int64(2), articles[1].ID)
	assert.True(t, articles[1].IsBlind)
	assert.True(t, created.Equal(articles[1].CreatedDate))
	require.NotNil(t, articles[1].ModifiedDate)
	assert.True(t, created.Equal(*articles[1].ModifiedDate))

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)

	empty, err := simpledb.SelectRows[*Article](ctx, sql.Append("SELECT * FROM article WHERE id = ?", 404))
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	assert.Equal(t, 0, driver.open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectRow_Typed(t *testing.T) {
	ctx := context.Background()
	db, mock, _ := newTestDb(t)

	mock.ExpectQuery("SELECT id, title, unknown_column FROM article WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "unknown_column"}).AddRow(int64(1), "first", "ignored"))
	mock.ExpectQuery("SELECT id, title FROM article WHERE id = ?").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	article, err := simpledb.SelectRow[Article](ctx, sql.Append("SELECT id, title, unknown_column FROM article WHERE id = ?", 1))
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Equal(t, Article{ID: 1, Title: "first"}, *article)

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)

	article, err = simpledb.SelectRow[Article](ctx, sql.Append("SELECT id, title FROM article WHERE id = ?", 2))
	require.NoError(t, err)
	assert.Nil(t, article)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectRows_MappingFailure(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	mock.ExpectQuery("SELECT id, title FROM article").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("not a number", "first"))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	articles, err := simpledb.SelectRows[Article](ctx, sql.Append("SELECT id, title FROM article"))
	require.Error(t, err)
	assert.Nil(t, articles)
	assert.True(t, errorx.IsExecutionError(err))

	var mappingErr *errorx.MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "id", mappingErr.Column)
	assert.Equal(t, "ID", mappingErr.Field)

	assert.Equal(t, 0, driver.open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectLong(t *testing.T) {
	ctx := context.Background()
	db, mock, _ := newTestDb(t)

	mock.ExpectQuery("SELECT id FROM article WHERE title = ?").
		WithArgs("first").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(8)))
	mock.ExpectQuery("SELECT id FROM article WHERE title = ?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT MAX(id) FROM article").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	id, err := sql.Append("SELECT id FROM article WHERE title = ?", "first").SelectLong(ctx)
	require.NoError(t, err)
	assert.True(t, id.Valid)
	assert.Equal(t, int64(7), id.V)

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	id, err = sql.Append("SELECT id FROM article WHERE title = ?", "missing").SelectLong(ctx)
	require.NoError(t, err)
	assert.False(t, id.Valid)

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	id, err = sql.Append("SELECT MAX(id) FROM article").SelectLong(ctx)
	require.NoError(t, err)
	assert.False(t, id.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectString(t *testing.T) {
	ctx := context.Background()
	db, mock, _ := newTestDb(t)

	mock.ExpectQuery("SELECT title FROM article WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow([]byte("first")))
	mock.ExpectQuery("SELECT body FROM article WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(nil))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	title, err := sql.Append("SELECT title FROM article WHERE id = ?", 1).SelectString(ctx)
	require.NoError(t, err)
	assert.True(t, title.Valid)
	assert.Equal(t, "first", title.V)

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	body, err := sql.Append("SELECT body FROM article WHERE id = ?", 1).SelectString(ctx)
	require.NoError(t, err)
	assert.False(t, body.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectBoolean(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		rows  *sqlmock.Rows
		valid bool
		want  bool
	}{
		{name: "native", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow(true), valid: true, want: true},
		{name: "numeric zero", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow(int64(0)), valid: true, want: false},
		{name: "numeric non zero", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow(int64(2)), valid: true, want: true},
		{name: "numeric text", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow([]byte("1")), valid: true, want: true},
		{name: "numeric text zero", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow("0"), valid: true, want: false},
		{name: "text", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow("TRUE"), valid: true, want: true},
		{name: "null", rows: sqlmock.NewRows([]string{"is_blind"}).AddRow(nil), valid: false},
		{name: "no row", rows: sqlmock.NewRows([]string{"is_blind"}), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := newTestDb(t)

			mock.ExpectQuery("SELECT is_blind FROM article WHERE id = ?").WithArgs(1).WillReturnRows(tt.rows)

			sql, err := db.GenSql(ctx)
			require.NoError(t, err)

			got, err := sql.Append("SELECT is_blind FROM article WHERE id = ?", 1).SelectBoolean(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.V)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSql_SelectLongs(t *testing.T) {
	ctx := context.Background()
	db, mock, driver := newTestDb(t)

	mock.ExpectQuery("SELECT parent_id FROM article ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"parent_id"}).AddRow(int64(3)).AddRow(nil).AddRow("5"))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)

	ids, err := sql.Append("SELECT parent_id FROM article ORDER BY id").SelectLongs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	assert.True(t, ids[0].Valid)
	assert.Equal(t, int64(3), ids[0].V)
	assert.False(t, ids[1].Valid)
	assert.True(t, ids[2].Valid)
	assert.Equal(t, int64(5), ids[2].V)

	assert.Equal(t, 0, driver.open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSql_SelectDatetime(t *testing.T) {
	ctx := context.Background()
	db, mock, _ := newTestDb(t)

	now := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery("SELECT NOW()").WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(now))
	mock.ExpectQuery("SELECT created_date FROM article WHERE id = ?").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"created_date"}))

	sql, err := db.GenSql(ctx)
	require.NoError(t, err)
	got, err := sql.Append("SELECT NOW()").SelectDatetime(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	sql, err = db.GenSql(ctx)
	require.NoError(t, err)
	_, err = sql.Append("SELECT created_date FROM article WHERE id = ?", 404).SelectDatetime(ctx)
	require.Error(t, err)
	assert.True(t, errorx.IsExecutionError(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
