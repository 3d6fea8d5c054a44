package dbx

import (
	"regexp"
	"strings"
)

var returningClause = regexp.MustCompile(`(?i)\breturning\b`)

// WithReturning makes an INSERT report the inserted row, unless the statement already has a
// RETURNING clause. Drivers of databases without a generated keys API read the first column
// of the first returned row as the generated key.
func WithReturning(query string) string {
	if returningClause.MatchString(query) {
		return query
	}

	return strings.TrimRight(query, "; \t\r\n") + " RETURNING *"
}
