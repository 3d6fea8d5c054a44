package timex

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SQLLayouts - the textual timestamp renderings returned by SQL drivers that do not decode
// date-time columns natively (e.g. MySQL without parseTime, SQLite).
var SQLLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTimeWithMultipleLayouts parses the time string with the provided layouts or as a numeric timestamp.
func ParseTimeWithMultipleLayouts(s string, layouts ...string) (time.Time, error) {
	// First, try to parse the string as a numeric timestamp
	if timestamp, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(0, timestamp*int64(time.Millisecond)).UTC(), nil
	}

	var (
		parsedTime   time.Time
		err          error
		errParseTime = errors.Errorf("no layout provided to parse '%s'", s)
	)

	for _, layout := range layouts {
		parsedTime, err = time.Parse(layout, s)
		if err == nil {
			return parsedTime.UTC(), nil
		}

		errParseTime = errors.WithMessagef(err, "unable to parse time string '%s' with provided layouts", s)
	}

	return time.Time{}, errParseTime
}

// ParseSQLTimestamp parses a textual SQL date-time value using SQLLayouts.
func ParseSQLTimestamp(s string) (time.Time, error) {
	return ParseTimeWithMultipleLayouts(strings.TrimSpace(s), SQLLayouts...)
}
