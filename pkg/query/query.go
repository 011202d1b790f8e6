// Package query classifies and normalizes SQL statement text pulled from
// PostgreSQL logs.
package query

import (
	"regexp"
	"strings"
)

// Type is the coarse classification of a SQL statement.
type Type string

const (
	TypeSelect Type = "SELECT"
	TypeInsert Type = "INSERT"
	TypeUpdate Type = "UPDATE"
	TypeDelete Type = "DELETE"
	TypeDDL    Type = "DDL"
	TypeOther  Type = "OTHER"
)

// ddlKeywords are the leading keywords classified as data definition
// statements.
var ddlKeywords = map[string]bool{
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
}

// Classify inspects the first token of the statement, case-insensitively.
// Anything that is not SELECT/INSERT/UPDATE/DELETE or a DDL keyword is
// Other (BEGIN, COMMIT, EXPLAIN, VACUUM, ...).
func Classify(sql string) Type {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return TypeOther
	}
	switch keyword := strings.ToUpper(fields[0]); {
	case keyword == "SELECT":
		return TypeSelect
	case keyword == "INSERT":
		return TypeInsert
	case keyword == "UPDATE":
		return TypeUpdate
	case keyword == "DELETE":
		return TypeDelete
	case ddlKeywords[keyword]:
		return TypeDDL
	default:
		return TypeOther
	}
}

var (
	stringLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'`)
	parameterRegex     = regexp.MustCompile(`\$\d+`)
	numberRegex        = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
)

// Normalize rewrites literal and parameter differences out of a statement
// so structurally identical statements share an aggregation key:
//
//	string literals  -> S
//	numeric literals -> N
//	$1, $2, ...      -> ?
//
// Whitespace runs (including newlines from multi-line statements) collapse
// to a single space and a trailing semicolon is stripped. Normalization is
// idempotent: normalizing normalized text returns it unchanged.
func Normalize(sql string) string {
	normalized := stringLiteralRegex.ReplaceAllString(sql, "S")
	normalized = parameterRegex.ReplaceAllString(normalized, "?")
	normalized = numberRegex.ReplaceAllString(normalized, "N")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	normalized = strings.TrimSuffix(normalized, ";")
	return strings.TrimSpace(normalized)
}
