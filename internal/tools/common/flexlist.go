package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxListValues is the upper bound on the number of values a flexible-list
// argument may carry. Mirrors the Google Calendar batch limits.
const MaxListValues = 50

// ItemNoun supplies the wording used in list policy error messages, e.g.
// {"calendar ID", "calendar IDs"}.
type ItemNoun struct {
	Singular string
	Plural   string
}

// ListErrorKind identifies which normalization rule a flexible-list value
// violated.
type ListErrorKind int

const (
	// ListErrorMalformed: the value claims list form but is neither a valid
	// JSON array nor a repairable single-quoted variant.
	ListErrorMalformed ListErrorKind = iota
	// ListErrorEmpty: the list parsed but contains zero elements.
	ListErrorEmpty
	// ListErrorTooMany: the list exceeds MaxListValues elements.
	ListErrorTooMany
	// ListErrorDuplicate: an element repeats a prior element exactly.
	ListErrorDuplicate
	// ListErrorElementType: an element is not a non-empty string.
	ListErrorElementType
)

// ListError is the domain-typed failure produced by NormalizeFlexibleList.
// Its message names the specific violated rule so callers can surface it
// verbatim to the user.
type ListError struct {
	Field string
	Kind  ListErrorKind
	// Value holds the offending element for ListErrorDuplicate.
	Value string

	noun ItemNoun
}

func (e *ListError) Error() string {
	switch e.Kind {
	case ListErrorEmpty:
		return fmt.Sprintf("At least one %s is required", e.noun.Singular)
	case ListErrorTooMany:
		return fmt.Sprintf("Maximum %d %s exceeded", MaxListValues, e.noun.Plural)
	case ListErrorDuplicate:
		return fmt.Sprintf("Duplicate %s are not allowed: %s", e.noun.Plural, e.Value)
	case ListErrorElementType:
		return fmt.Sprintf("%s must contain only non-empty strings", e.Field)
	default:
		return fmt.Sprintf("Invalid JSON format for %s", e.Field)
	}
}

// NormalizeFlexibleList decides whether a shape-validated string argument
// represents one logical value or an encoded list, and enforces list policy.
//
// Strings that do not open with a bracket are returned unchanged as a single
// value with isList false; this is the common case and takes no parse path at
// all. A leading bracket claims list form: the string is parsed as a strict
// JSON array, falling back to a repair pass for single-quoted elements (a
// convention of clients that re-serialize arguments with Python-style string
// literals), and fails as malformed if neither parse succeeds.
//
// A returned list always has 1 to MaxListValues unique, non-empty string
// elements in their original order. The function is pure; all failures are
// *ListError values.
func NormalizeFlexibleList(field string, noun ItemNoun, value string) (values []string, isList bool, err error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "[") {
		return []string{value}, false, nil
	}

	elements, ok := parseJSONArray(trimmed)
	if !ok {
		repaired, changed := rewriteSingleQuoted(trimmed)
		if changed {
			elements, ok = parseJSONArray(repaired)
		}
		if !ok {
			return nil, false, &ListError{Field: field, Kind: ListErrorMalformed, noun: noun}
		}
	}

	for _, element := range elements {
		s, isString := element.(string)
		if !isString || s == "" {
			return nil, false, &ListError{Field: field, Kind: ListErrorElementType, noun: noun}
		}
	}
	if len(elements) == 0 {
		return nil, false, &ListError{Field: field, Kind: ListErrorEmpty, noun: noun}
	}
	if len(elements) > MaxListValues {
		return nil, false, &ListError{Field: field, Kind: ListErrorTooMany, noun: noun}
	}

	seen := make(map[string]struct{}, len(elements))
	values = make([]string, 0, len(elements))
	for _, element := range elements {
		s := element.(string)
		if _, dup := seen[s]; dup {
			return nil, false, &ListError{Field: field, Kind: ListErrorDuplicate, Value: s, noun: noun}
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}

	return values, true, nil
}

// parseJSONArray parses s as a JSON array. Returns ok=false for any input
// that is not a syntactically valid array, including valid JSON of another
// top-level type.
func parseJSONArray(s string) ([]interface{}, bool) {
	var elements []interface{}
	if err := json.Unmarshal([]byte(s), &elements); err != nil {
		return nil, false
	}
	return elements, true
}

// rewriteSingleQuoted rewrites paired single quotes that delimit array
// elements into double quotes, producing JSON-parsable text from inputs like
// ['primary','work'].
//
// A single quote only opens an element when it follows the opening bracket or
// an element separator, and only closes one when the next non-space character
// is a separator or the closing bracket. Apostrophes embedded inside an
// element's content therefore survive untouched, as long as the value itself
// has no delimiter ambiguity. Double quotes inside a rewritten element are
// escaped so the content round-trips exactly.
func rewriteSingleQuoted(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	changed := false

	for i := 0; i < len(s); {
		if s[i] == '\'' && opensElement(s, i) {
			if end, ok := findClosingQuote(s, i); ok {
				content := s[i+1 : end]
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(content, `"`, `\"`))
				b.WriteByte('"')
				i = end + 1
				changed = true
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String(), changed
}

// opensElement reports whether the quote at index i is in element-start
// position: preceded (ignoring whitespace) by '[' or ','.
func opensElement(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\n', '\r':
			continue
		case '[', ',':
			return true
		default:
			return false
		}
	}
	return false
}

// findClosingQuote locates the single quote that terminates the element
// opened at index start: the next quote followed (ignoring whitespace) by a
// separator or the closing bracket.
func findClosingQuote(s string, start int) (int, bool) {
	for i := start + 1; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case ' ', '\t', '\n', '\r':
				continue
			case ',', ']':
				return i, true
			default:
				j = len(s)
			}
		}
	}
	return 0, false
}
