package queryir

import (
	"errors"
	"strconv"
	"strings"
)

// comparatorPhrases are searched in this order; longer phrases first so
// that "greater than" is never read as an attribute named "greater".
var comparatorPhrases = []string{
	string(GreaterThan),
	string(LowerThan),
	string(StartsWith),
	string(EndsWith),
	string(Contains),
	"equals",
}

// ParseExpression parses an inline filter expression into a ConditionSpec.
//
// Supported expression formats:
//   - "name starts with Project"
//   - `description contains "two words"`
//   - "days greater than 3"
//   - `description starts with "this is the" and days greater than 3`
//   - "days lower than 2 or days greater than 10"
//
// At most one "and"/"or" may appear outside quotes. An unquoted literal
// after "equals" that parses as a number yields a NumericCondition; quote it
// to compare as a string.
func ParseExpression(expr string) (*ConditionSpec, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &ConditionSpec{}, nil
	}
	if !scanOutsideQuotes(expr, func(int) int { return 0 }) {
		return nil, &DecodeError{Field: "where", Message: "unclosed quote in " + strconv.Quote(expr)}
	}

	parts, ops := splitByComposition(expr)
	if len(parts) > 2 {
		return nil, &DecodeError{Field: "where", Message: "at most two conditions may be combined"}
	}

	c1, err := ParseCondition(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return Single(c1), nil
	}

	c2, err := ParseCondition(parts[1])
	if err != nil {
		return nil, err
	}
	return Both(c1, ops[0], c2), nil
}

// ParseCondition parses a single "<attribute> <comparator> <literal>" test.
func ParseCondition(expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)

	idx, phrase := findComparator(expr)
	if idx < 0 {
		return nil, &DecodeError{Field: "where", Message: "no comparator found in " + strconv.Quote(expr)}
	}

	attr := strings.TrimSpace(expr[:idx])
	literal := strings.TrimSpace(expr[idx+len(phrase)+1:])
	if attr == "" {
		return nil, &DecodeError{Field: "where", Message: "missing attribute in " + strconv.Quote(expr)}
	}
	if literal == "" {
		return nil, &DecodeError{Field: "where", Message: "missing value in " + strconv.Quote(expr)}
	}

	text, quoted, err := unquote(literal)
	if err != nil {
		return nil, &DecodeError{Field: "where", Message: err.Error()}
	}

	switch NumericComparator(phrase) {
	case GreaterThan, LowerThan:
		if quoted {
			return nil, &DecodeError{Field: "where", Message: phrase + " requires a numeric value, got " + literal}
		}
		return numeric(attr, NumericComparator(phrase), text)
	}

	if phrase == "equals" && !quoted {
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			return numeric(attr, NumericEquals, text)
		}
	}
	return StringCondition{Attribute: attr, Comparator: StringComparator(phrase), Value: text}, nil
}

func numeric(attr string, comparator NumericComparator, text string) (Condition, error) {
	nc, err := NewNumericCondition(attr, comparator, text)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Field = "where"
		}
		return nil, err
	}
	return nc, nil
}

// findComparator returns the byte offset of the space preceding the first
// comparator phrase found outside quotes, and the phrase itself.
func findComparator(expr string) (int, string) {
	best, bestPhrase := -1, ""
	for _, phrase := range comparatorPhrases {
		needle := " " + phrase + " "
		idx := indexOutsideQuotes(expr, needle)
		if idx >= 0 && (best < 0 || idx < best) {
			best, bestPhrase = idx, phrase
		}
	}
	return best, bestPhrase
}

// splitByComposition splits on " and " / " or " (case insensitive) outside
// quotes and returns the parts and the operators between them.
func splitByComposition(expr string) ([]string, []Composition) {
	var parts []string
	var ops []Composition
	lower := strings.ToLower(expr)
	start := 0
	scanOutsideQuotes(expr, func(i int) int {
		var op Composition
		switch {
		case strings.HasPrefix(lower[i:], " and "):
			op = And
		case strings.HasPrefix(lower[i:], " or "):
			op = Or
		default:
			return 0
		}
		parts = append(parts, strings.TrimSpace(expr[start:i]))
		ops = append(ops, op)
		start = i + len(op) + 2
		return len(op) + 1
	})
	parts = append(parts, strings.TrimSpace(expr[start:]))
	return parts, ops
}

// indexOutsideQuotes is strings.Index that ignores matches inside quotes.
func indexOutsideQuotes(s, needle string) int {
	found := -1
	scanOutsideQuotes(s, func(i int) int {
		if found < 0 && strings.HasPrefix(s[i:], needle) {
			found = i
		}
		return 0
	})
	return found
}

// scanOutsideQuotes calls visit with each byte offset of s that is not
// inside a quoted literal. visit returns how many further bytes to skip.
// A quote only opens at the start of a word, so apostrophes inside words
// such as O'Brien are plain text. It reports whether every quote was
// closed.
func scanOutsideQuotes(s string, visit func(i int) int) bool {
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuote != 0 {
			if ch == '\\' && inQuote == '"' {
				i++
				continue
			}
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		if (ch == '"' || ch == '\'') && (i == 0 || s[i-1] == ' ') {
			inQuote = ch
			continue
		}
		i += visit(i)
	}
	return inQuote == 0
}

// unquote strips matching single or double quotes from a literal.
func unquote(literal string) (string, bool, error) {
	if len(literal) >= 2 {
		first, last := literal[0], literal[len(literal)-1]
		if first == '"' && last == '"' {
			s, err := strconv.Unquote(literal)
			return s, true, err
		}
		if first == '\'' && last == '\'' {
			return literal[1 : len(literal)-1], true, nil
		}
	}
	return literal, false, nil
}
