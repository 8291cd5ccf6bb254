package querypad

import "strings"

// ClauseKeywords are the top-level keywords the cursor context resolver
// recognizes when scanning backwards for the nearest clause. Multi-word
// clauses (GROUP BY, ORDER BY) are tracked by their first word.
var ClauseKeywords = []string{
	"SELECT", "DISTINCT", "TOP",
	"FROM", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "OUTER", "CROSS",
	"ON", "WHERE", "AND", "OR", "NOT",
	"GROUP", "ORDER", "BY", "HAVING",
	"UNION", "ALL", "EXCEPT", "INTERSECT",
	"CASE", "WHEN", "THEN", "ELSE", "END",
	"AS", "IN", "LIKE", "BETWEEN", "IS", "NULL", "EXISTS",
}

// selectKeywords put the cursor in a field-list position.
var selectKeywords = map[string]bool{
	"SELECT":   true,
	"DISTINCT": true,
	"TOP":      true,
}

// fromJoinKeywords put the cursor in a table-reference position.
var fromJoinKeywords = map[string]bool{
	"FROM": true,
	"JOIN": true,
}

// reservedWords terminate alias lookahead after a table reference: a
// bare identifier matching one of these is the start of the next
// clause, never an alias. Case-insensitive.
var reservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"OUTER": true, "CROSS": true, "ON": true, "AS": true,
	"AND": true, "OR": true, "NOT": true, "GROUP": true,
	"ORDER": true, "BY": true, "HAVING": true, "UNION": true,
	"ALL": true, "EXCEPT": true, "INTERSECT": true, "CASE": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"IN": true, "LIKE": true, "BETWEEN": true, "IS": true,
	"NULL": true, "EXISTS": true, "DISTINCT": true, "TOP": true,
	"WITH": true, "DESC": true, "ASC": true,
}

// IsReservedWord reports whether word is a reserved SQL keyword
// (case-insensitive).
func IsReservedWord(word string) bool {
	return reservedWords[strings.ToUpper(word)]
}

var clauseKeywordSet = func() map[string]bool {
	m := make(map[string]bool, len(ClauseKeywords))
	for _, kw := range ClauseKeywords {
		m[kw] = true
	}

	return m
}()

// IsClauseKeyword reports whether word is one of the clause keywords
// the context resolver scans for (case-insensitive).
func IsClauseKeyword(word string) bool {
	return clauseKeywordSet[strings.ToUpper(word)]
}

// IsSelectKeyword reports whether kw places the cursor in a field-list
// position.
func IsSelectKeyword(kw string) bool {
	return selectKeywords[strings.ToUpper(kw)]
}

// IsFromJoinKeyword reports whether kw places the cursor in a
// table-reference position.
func IsFromJoinKeyword(kw string) bool {
	return fromJoinKeywords[strings.ToUpper(kw)]
}

// SuggestableKeywords is the static completion list offered in keyword
// positions.
var SuggestableKeywords = []string{
	"SELECT", "DISTINCT", "TOP",
	"FROM", "JOIN", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL JOIN", "CROSS JOIN",
	"ON", "WHERE", "AND", "OR", "NOT",
	"GROUP BY", "ORDER BY", "HAVING",
	"UNION", "UNION ALL", "EXCEPT", "INTERSECT",
	"AS", "IN", "LIKE", "BETWEEN", "IS NULL", "IS NOT NULL",
	"CASE", "WHEN", "THEN", "ELSE", "END",
	"ASC", "DESC",
}

// keywordFollowers maps a clause keyword to the keywords contextually
// expected after it. Suggestion ranking boosts these above the rest of
// the static list.
var keywordFollowers = map[string][]string{
	"":         {"SELECT"},
	"SELECT":   {"DISTINCT", "TOP"},
	"DISTINCT": {"TOP"},
	"FROM":     {"JOIN", "INNER JOIN", "LEFT JOIN", "WHERE", "GROUP BY", "ORDER BY"},
	"JOIN":     {"ON"},
	"ON":       {"AND", "OR", "WHERE", "JOIN", "INNER JOIN", "LEFT JOIN"},
	"WHERE":    {"AND", "OR", "NOT", "GROUP BY", "ORDER BY"},
	"AND":      {"NOT"},
	"OR":       {"NOT"},
	"GROUP":    {"HAVING", "ORDER BY"},
	"HAVING":   {"ORDER BY"},
	"ORDER":    {"ASC", "DESC"},
	"UNION":    {"SELECT", "UNION ALL"},
}

// KeywordFollowers returns the keywords contextually expected after
// lastKeyword (case-insensitive). An unknown keyword yields nil.
func KeywordFollowers(lastKeyword string) []string {
	return keywordFollowers[strings.ToUpper(lastKeyword)]
}
