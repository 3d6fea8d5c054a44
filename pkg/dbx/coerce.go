package dbx

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/marcodd23/go-simpledb/pkg/utilx/timex"
	"github.com/pkg/errors"
)

// The To* functions coerce a raw driver value to a scalar type.
// They return ok=false, without error, when the value is SQL NULL.

// ToInt64 coerces integer, floating point (truncated) and numeric text values.
func ToInt64(v any) (int64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case int16:
		return int64(n), true, nil
	case int8:
		return int64(n), true, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, false, errors.Errorf("value %d overflows int64", n)
		}
		return int64(n), true, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false, errors.Errorf("value %d overflows int64", n)
		}
		return int64(n), true, nil
	case uint32:
		return int64(n), true, nil
	case uint16:
		return int64(n), true, nil
	case uint8:
		return int64(n), true, nil
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case string:
		return parseInt64(n)
	case []byte:
		return parseInt64(string(n))
	case driver.Valuer:
		inner, err := n.Value()
		if err != nil {
			return 0, false, errors.Wrap(err, "reading driver value")
		}
		return ToInt64(inner)
	}

	return 0, false, errors.Errorf("cannot convert %T to int64", v)
}

func parseInt64(s string) (int64, bool, error) {
	s = strings.TrimSpace(s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, true, nil
	}

	// numeric text with a fractional part, e.g. DECIMAL rendered by the driver
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, false, errors.Wrapf(err, "cannot convert '%s' to int64", s)
	}

	return floatToInt64(f)
}

// floatToInt64 truncates f, rejecting NaN, infinities and values outside the int64 range.
func floatToInt64(f float64) (int64, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false, errors.Errorf("value %v overflows int64", f)
	}

	return int64(f), true, nil
}

// ToFloat64 coerces integer, floating point and numeric text values.
func ToFloat64(v any) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, errors.Wrapf(err, "cannot convert '%s' to float64", n)
		}
		return f, true, nil
	case []byte:
		return ToFloat64(string(n))
	case driver.Valuer:
		inner, err := n.Value()
		if err != nil {
			return 0, false, errors.Wrap(err, "reading driver value")
		}
		return ToFloat64(inner)
	}

	i, ok, err := ToInt64(v)
	if err != nil {
		return 0, false, errors.Errorf("cannot convert %T to float64", v)
	}

	return float64(i), ok, nil
}

// ToString coerces any non-NULL value to its textual form.
func ToString(v any) (string, bool, error) {
	switch s := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return s, true, nil
	case []byte:
		return string(s), true, nil
	case time.Time:
		return s.Format(time.RFC3339Nano), true, nil
	case fmt.Stringer:
		return s.String(), true, nil
	case driver.Valuer:
		inner, err := s.Value()
		if err != nil {
			return "", false, errors.Wrap(err, "reading driver value")
		}
		return ToString(inner)
	}

	return fmt.Sprint(v), true, nil
}

// ToBool coerces, in priority order, a native boolean, a numeric zero/non-zero encoding
// (BIT, TINYINT, NUMERIC, also when rendered as text) and a textual value, which is true only
// when it equals "true" ignoring case.
func ToBool(v any) (bool, bool, error) {
	switch b := v.(type) {
	case nil:
		return false, false, nil
	case bool:
		return b, true, nil
	case string:
		return textToBool(b), true, nil
	case []byte:
		// single byte BIT(1) values arrive as raw bytes
		if len(b) == 1 && (b[0] == 0 || b[0] == 1) {
			return b[0] == 1, true, nil
		}
		return textToBool(string(b)), true, nil
	case float64:
		return b != 0, true, nil
	case float32:
		return b != 0, true, nil
	case driver.Valuer:
		inner, err := b.Value()
		if err != nil {
			return false, false, errors.Wrap(err, "reading driver value")
		}
		return ToBool(inner)
	}

	n, ok, err := ToInt64(v)
	if err != nil {
		return false, false, errors.Errorf("cannot convert %T to bool", v)
	}

	return n != 0, ok, nil
}

func textToBool(s string) bool {
	s = strings.TrimSpace(s)

	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return f != 0
	}

	return strings.EqualFold(s, "true")
}

// ToTime coerces a native date-time or its textual rendering.
func ToTime(v any) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t, true, nil
	case string:
		parsed, err := timex.ParseSQLTimestamp(t)
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed, true, nil
	case []byte:
		return ToTime(string(t))
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return time.Time{}, false, errors.Wrap(err, "reading driver value")
		}
		return ToTime(inner)
	}

	return time.Time{}, false, errors.Errorf("cannot convert %T to time.Time", v)
}
