package dbx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToCamelCase converts a lower-snake-case column label to lower-camel-case.
//
// Every underscore is dropped and the character following it is upper-cased; every other
// character is lower-cased: "created_date" -> "createdDate", "ID" -> "id".
func ToCamelCase(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	upper := false
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}

		if upper {
			sb.WriteRune(unicode.ToUpper(r))
		} else {
			sb.WriteRune(unicode.ToLower(r))
		}

		upper = false
	}

	return sb.String()
}

// lowerFirst turns an exported Go field name into its lower-camel form.
func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToLower(r)) + name[size:]
}
