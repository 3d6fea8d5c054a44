package dbx_test

import (
	"testing"

	"github.com/marcodd23/go-simpledb/pkg/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_OrderedAccess(t *testing.T) {
	row := dbx.NewRow([]string{"id", "title", "id"}, []any{int64(1), "title", int64(2)})

	assert.Equal(t, 3, row.Len())
	assert.Equal(t, []string{"id", "title", "id"}, row.Columns())

	v, ok := row.Get("id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = row.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"id": int64(1), "title": "title"}, row.ToMap())
}

func TestRow_MarshalJSONKeepsColumnOrder(t *testing.T) {
	row := dbx.NewRow([]string{"title", "id", "body", "is_blind"}, []any{"t", int64(1), []byte("b"), nil})

	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"t","id":1,"body":"b","is_blind":null}`, string(data))
}
