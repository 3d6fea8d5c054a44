package dbx

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Row is one result row materialized as an ordered mapping from column label to raw value.
//
// The column order is the select-list order. Lookups by label return the first column
// carrying that label.
type Row struct {
	columns []string
	values  []any
}

// NewRow builds a Row from parallel columns and values slices.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column labels in select-list order.
func (r Row) Columns() []string {
	return r.columns
}

// Values returns the raw values in select-list order.
func (r Row) Values() []any {
	return r.values
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// Get returns the raw value of the given column label.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}

	return nil, false
}

// ToMap returns the row as an unordered map.
func (r Row) ToMap() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i := len(r.columns) - 1; i >= 0; i-- {
		m[r.columns[i]] = r.values[i]
	}

	return m
}

// MarshalJSON renders the row as a JSON object keeping the column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(jsonValue(r.values[i]))
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// jsonValue renders driver text bytes as strings instead of base64.
func jsonValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}
