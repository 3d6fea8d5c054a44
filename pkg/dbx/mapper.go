package dbx

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/pkg/errors"
)

// TagKey - the struct tag overriding the column label a field is mapped from.
const TagKey = "db"

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	bytesType   = reflect.TypeOf([]byte(nil))

	// structPlans caches a *structPlan per struct type.
	structPlans sync.Map
)

type fieldPlan struct {
	name  string
	index []int
}

// structPlan is the column lookup table of one struct type, built once.
type structPlan struct {
	byTag  map[string]*fieldPlan
	byName map[string]*fieldPlan
	byFold map[string]*fieldPlan
}

func planFor(t reflect.Type) *structPlan {
	if cached, ok := structPlans.Load(t); ok {
		return cached.(*structPlan)
	}

	plan := &structPlan{
		byTag:  make(map[string]*fieldPlan),
		byName: make(map[string]*fieldPlan),
		byFold: make(map[string]*fieldPlan),
	}

	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous && indirect(field.Type).Kind() == reflect.Struct {
			continue
		}

		if !settablePath(t, field.Index) {
			continue
		}

		tag := field.Tag.Get(TagKey)
		if tag == "-" {
			continue
		}

		fp := &fieldPlan{name: field.Name, index: field.Index}
		if tag != "" {
			plan.byTag[tag] = fp
			continue
		}

		camel := lowerFirst(field.Name)
		if _, exists := plan.byName[camel]; !exists {
			plan.byName[camel] = fp
		}

		folded := strings.ToLower(field.Name)
		if _, exists := plan.byFold[folded]; !exists {
			plan.byFold[folded] = fp
		}
	}

	actual, _ := structPlans.LoadOrStore(t, plan)

	return actual.(*structPlan)
}

func (p *structPlan) lookup(column string) *fieldPlan {
	if fp, ok := p.byTag[column]; ok {
		return fp
	}

	camel := ToCamelCase(column)
	if fp, ok := p.byName[camel]; ok {
		return fp
	}

	return p.byFold[strings.ToLower(camel)]
}

// RowMapper populates values of type T from result rows.
//
// The column to field resolution is done once, when the mapper is built for a result set;
// mapping a row only walks the resolved table. T may be a struct, a pointer to a struct, or,
// for single column results, any scalar type the column converts to.
//
// Columns with no matching field are ignored. A value that cannot be stored in its field
// aborts the row with an errorx.MappingError.
type RowMapper[T any] struct {
	columns []string
	fields  []*fieldPlan
	isPtr   bool
	target  reflect.Type
	scalar  bool
}

// NewRowMapper builds the RowMapper of T for the given column labels.
func NewRowMapper[T any](columns []string) (*RowMapper[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	m := &RowMapper[T]{columns: columns, target: t}

	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && !isScannerOrTime(t.Elem()) {
		m.isPtr = true
		m.target = t.Elem()
	}

	if m.target.Kind() != reflect.Struct || isScannerOrTime(m.target) {
		if len(columns) != 1 {
			return nil, errors.Errorf("mapping onto %s requires exactly 1 column, got %d", t, len(columns))
		}
		m.scalar = true
		m.target = t
		m.isPtr = false

		return m, nil
	}

	plan := planFor(m.target)
	m.fields = make([]*fieldPlan, len(columns))

	for i, column := range columns {
		m.fields[i] = plan.lookup(column)
	}

	return m, nil
}

// Map builds a new T from the values of one row.
func (m *RowMapper[T]) Map(values []any) (T, error) {
	var out T

	if len(values) != len(m.columns) {
		return out, errors.Errorf("row has %d values for %d columns", len(values), len(m.columns))
	}

	if m.scalar {
		dst := reflect.ValueOf(&out).Elem()
		if err := assign(dst, values[0]); err != nil {
			return out, errorx.NewMappingError(err, m.columns[0], m.target.String())
		}

		return out, nil
	}

	holder := reflect.New(m.target)
	dst := holder.Elem()

	for i, fp := range m.fields {
		if fp == nil {
			continue
		}

		if err := assign(fieldByIndexAlloc(dst, fp.index), values[i]); err != nil {
			return out, errorx.NewMappingError(err, m.columns[i], fp.name)
		}
	}

	if m.isPtr {
		out = holder.Interface().(T)
	} else {
		out = dst.Interface().(T)
	}

	return out, nil
}

// MapRow populates a new T from a single row.
func MapRow[T any](row Row) (T, error) {
	m, err := NewRowMapper[T](row.Columns())
	if err != nil {
		var zero T
		return zero, err
	}

	return m.Map(row.Values())
}

// assign stores a raw driver value into dst.
func assign(dst reflect.Value, raw any) error {
	if raw == nil {
		dst.SetZero()
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)

		return nil
	}

	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(raw)
	}

	src := reflect.ValueOf(raw)

	if dst.Type() == timeType {
		t, _, err := ToTime(raw)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))

		return nil
	}

	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		b, _, err := ToBool(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _, err := ToInt64(raw)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return errors.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _, err := ToInt64(raw)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return errors.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		f, _, err := ToFloat64(raw)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return errors.Errorf("value %g overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)

	case reflect.String:
		s, _, err := ToString(raw)
		if err != nil {
			return err
		}
		dst.SetString(s)

	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return assignJSON(dst, raw)

	default:
		return errors.Errorf("unsupported conversion from %T to %s", raw, dst.Type())
	}

	return nil
}

// assignJSON stores JSON text, or a value the driver already decoded from JSON, into dst.
func assignJSON(dst reflect.Value, raw any) error {
	var data []byte

	switch v := raw.(type) {
	case []byte:
		if dst.Type() == bytesType {
			dst.SetBytes(append([]byte(nil), v...))
			return nil
		}
		data = v
	case string:
		if dst.Type() == bytesType {
			dst.SetBytes([]byte(v))
			return nil
		}
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "unsupported conversion from %T to %s", raw, dst.Type())
		}
		data = encoded
	}

	if err := json.Unmarshal(data, dst.Addr().Interface()); err != nil {
		return errors.Wrapf(err, "decoding JSON into %s", dst.Type())
	}

	return nil
}

// fieldByIndexAlloc walks an index path allocating nil embedded pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}

	return v
}

// settablePath reports whether every embedded struct on the way to a promoted field is exported.
func settablePath(t reflect.Type, index []int) bool {
	for i := 0; i < len(index)-1; i++ {
		f := t.FieldByIndex(index[:i+1])
		if !f.IsExported() {
			return false
		}
	}

	return true
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}

	return t
}

func isScannerOrTime(t reflect.Type) bool {
	return t == timeType || reflect.PointerTo(t).Implements(scannerType)
}
