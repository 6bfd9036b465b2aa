// Package locator finds the import, export, and require statements in emitted
// JavaScript that name a given specifier. It matches text patterns instead of
// parsing, so a statement-shaped string inside a comment or a string literal
// is matched too.
package locator

import (
	"regexp"
	"sort"
	"strings"
)

// Statement is one matched statement. All offsets are byte offsets into the
// source text that was searched. The specifier span covers only the text
// between the quotes.
type Statement struct {
	Text      string
	Start     int
	End       int
	SpecStart int
	SpecEnd   int
}

// The clause between a keyword and "from" may span lines but never crosses a
// statement terminator or the start of another string.
const clause = "[^;\"'`]*?"

func quoted(specifier string) string {
	escaped := regexp.QuoteMeta(specifier)
	return `(?:"(` + escaped + `)"|'(` + escaped + `)')`
}

type pattern struct {
	re *regexp.Regexp

	// The submatch holding the keyword's clause, or 0 for none
	clauseGroup int
}

func patternsFor(specifier string) []pattern {
	q := quoted(specifier)
	return []pattern{
		// import x from "./mod", import { a, b } from "./mod", import * as ns from "./mod"
		{re: regexp.MustCompile(`\bimport\b(` + clause + `)\bfrom\s*` + q), clauseGroup: 1},

		// import "./mod"
		{re: regexp.MustCompile(`\bimport\s*` + q)},

		// import("./mod"), require("./mod")
		{re: regexp.MustCompile(`\b(?:import|require)\s*\(\s*` + q + `\s*\)`)},

		// export * from "./mod", export { a } from "./mod"
		{re: regexp.MustCompile(`\bexport\b(` + clause + `)\bfrom\s*` + q), clauseGroup: 1},
	}
}

// FindStatements returns the statements in "source" whose quoted specifier is
// exactly "specifier", ordered by position. Type-only imports and exports are
// never returned.
func FindStatements(source string, specifier string) []Statement {
	if specifier == "" || !strings.Contains(source, specifier) {
		return nil
	}

	var statements []Statement
	for _, p := range patternsFor(specifier) {
		for _, m := range p.re.FindAllStringSubmatchIndex(source, -1) {
			if p.clauseGroup != 0 && isTypeOnlyClause(source[m[2*p.clauseGroup]:m[2*p.clauseGroup+1]]) {
				continue
			}

			// The last two groups are the double-quoted and single-quoted forms
			n := len(m)
			specStart, specEnd := m[n-4], m[n-3]
			if specStart == -1 {
				specStart, specEnd = m[n-2], m[n-1]
			}

			statements = append(statements, Statement{
				Text:      source[m[0]:m[1]],
				Start:     m[0],
				End:       m[1],
				SpecStart: specStart,
				SpecEnd:   specEnd,
			})
		}
	}

	sort.Slice(statements, func(i, j int) bool {
		return statements[i].Start < statements[j].Start
	})

	// Two patterns can never claim the same specifier, but be safe about it
	deduped := statements[:0]
	lastSpecEnd := -1
	for _, s := range statements {
		if s.SpecStart >= lastSpecEnd {
			deduped = append(deduped, s)
			lastSpecEnd = s.SpecEnd
		}
	}
	return deduped
}

// "type { A }", "type A", and "type * as ns" are type-only. "type from" and
// "type, { a }" import a binding that happens to be named "type".
func isTypeOnlyClause(text string) bool {
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(text, "type") {
		return false
	}
	rest := text[len("type"):]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if len(trimmed) == len(rest) {
		// "typeof" or "types" or a bare "type" followed directly by "from"
		return strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "*")
	}
	return trimmed != "" && trimmed[0] != ','
}

// ReplaceAll substitutes "replacement" for the specifier of every statement
// naming "specifier", one statement at a time in source order. If "visit" is
// not nil it is called with the updated text after each substitution, and an
// error from it stops the rewrite with the text as of that statement.
func ReplaceAll(source string, specifier string, replacement string, visit func(text string, statement Statement) error) (string, int, error) {
	statements := FindStatements(source, specifier)
	delta := 0
	for i, s := range statements {
		start, end := s.SpecStart+delta, s.SpecEnd+delta
		source = source[:start] + replacement + source[end:]
		delta += len(replacement) - (s.SpecEnd - s.SpecStart)
		if visit != nil {
			if err := visit(source, s); err != nil {
				return source, i + 1, err
			}
		}
	}
	return source, len(statements), nil
}
