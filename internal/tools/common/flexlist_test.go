package common

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calendarNoun = ItemNoun{Singular: "calendar ID", Plural: "calendar IDs"}

func TestNormalizeFlexibleList_SingleValues(t *testing.T) {
	// Anything that does not open with a bracket is a single literal value
	// and must come back unchanged.
	tests := []struct {
		name  string
		value string
	}{
		{"plain identifier", "primary"},
		{"email address", "johns-calendar@example.com"},
		{"embedded apostrophe", "john's calendar"},
		{"trailing whitespace preserved", "primary  "},
		{"leading whitespace preserved", "  primary"},
		{"empty string", ""},
		{"closing bracket only", "weird]"},
		{"comma separated but unbracketed", "a,b,c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, isList, err := NormalizeFlexibleList("calendarId", calendarNoun, tt.value)
			require.NoError(t, err)
			assert.False(t, isList)
			assert.Equal(t, []string{tt.value}, values)
		})
	}
}

func TestNormalizeFlexibleList_ValidLists(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "double quoted",
			value: `["primary","work@example.com"]`,
			want:  []string{"primary", "work@example.com"},
		},
		{
			name:  "single element",
			value: `["primary"]`,
			want:  []string{"primary"},
		},
		{
			name:  "single quoted",
			value: `['primary','work@example.com']`,
			want:  []string{"primary", "work@example.com"},
		},
		{
			name:  "single quoted with spacing",
			value: `[ 'primary' , 'work@example.com' ]`,
			want:  []string{"primary", "work@example.com"},
		},
		{
			name:  "apostrophe inside double quoted element",
			value: `["primary","john's calendar"]`,
			want:  []string{"primary", "john's calendar"},
		},
		{
			name:  "surrounding whitespace around the list",
			value: `  ["primary","work"]  `,
			want:  []string{"primary", "work"},
		},
		{
			name:  "order preserved",
			value: `["c","a","b"]`,
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "element whitespace preserved exactly",
			value: `[" padded "]`,
			want:  []string{" padded "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, isList, err := NormalizeFlexibleList("calendarId", calendarNoun, tt.value)
			require.NoError(t, err)
			assert.True(t, isList)
			assert.Equal(t, tt.want, values)
		})
	}
}

func TestNormalizeFlexibleList_QuoteStyleParity(t *testing.T) {
	// Single- and double-quoted encodings of the same list must normalize
	// identically, including values carrying an internal apostrophe-free
	// email localpart like johns-calendar.
	doubleQuoted := `["primary","johns-calendar@example.com"]`
	singleQuoted := `['primary','johns-calendar@example.com']`

	wantValues, wantList, err := NormalizeFlexibleList("calendarId", calendarNoun, doubleQuoted)
	require.NoError(t, err)
	require.True(t, wantList)

	gotValues, gotList, err := NormalizeFlexibleList("calendarId", calendarNoun, singleQuoted)
	require.NoError(t, err)
	require.True(t, gotList)
	assert.Equal(t, wantValues, gotValues)
}

func TestNormalizeFlexibleList_PolicyViolations(t *testing.T) {
	big := make([]string, 51)
	for i := range big {
		big[i] = fmt.Sprintf(`"cal-%d"`, i)
	}

	tests := []struct {
		name     string
		value    string
		wantKind ListErrorKind
		wantMsg  string
	}{
		{
			name:     "empty list",
			value:    `[]`,
			wantKind: ListErrorEmpty,
			wantMsg:  "At least one calendar ID is required",
		},
		{
			name:     "51 elements",
			value:    "[" + strings.Join(big, ",") + "]",
			wantKind: ListErrorTooMany,
			wantMsg:  "Maximum 50 calendar IDs exceeded",
		},
		{
			name:     "duplicate elements",
			value:    `["a","a"]`,
			wantKind: ListErrorDuplicate,
			wantMsg:  "Duplicate calendar IDs are not allowed: a",
		},
		{
			name:     "non-string elements",
			value:    `["a", 123, null]`,
			wantKind: ListErrorElementType,
			wantMsg:  "calendarId must contain only non-empty strings",
		},
		{
			name:     "empty string element",
			value:    `["a",""]`,
			wantKind: ListErrorElementType,
			wantMsg:  "calendarId must contain only non-empty strings",
		},
		{
			name:     "object element",
			value:    `[{"id":"a"}]`,
			wantKind: ListErrorElementType,
			wantMsg:  "calendarId must contain only non-empty strings",
		},
		{
			name:     "missing closing quote and bracket",
			value:    `["a", "missing-quote}`,
			wantKind: ListErrorMalformed,
			wantMsg:  "Invalid JSON format for calendarId",
		},
		{
			name:     "truncated list",
			value:    `["a",`,
			wantKind: ListErrorMalformed,
			wantMsg:  "Invalid JSON format for calendarId",
		},
		{
			name:     "bare words inside brackets",
			value:    `[primary]`,
			wantKind: ListErrorMalformed,
			wantMsg:  "Invalid JSON format for calendarId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NormalizeFlexibleList("calendarId", calendarNoun, tt.value)
			require.Error(t, err)

			var listErr *ListError
			require.ErrorAs(t, err, &listErr)
			assert.Equal(t, tt.wantKind, listErr.Kind)
			assert.Equal(t, "calendarId", listErr.Field)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestNormalizeFlexibleList_DuplicateNamesValue(t *testing.T) {
	_, _, err := NormalizeFlexibleList("calendarId", calendarNoun, `["x","y","x"]`)
	require.Error(t, err)

	var listErr *ListError
	require.ErrorAs(t, err, &listErr)
	assert.Equal(t, ListErrorDuplicate, listErr.Kind)
	assert.Equal(t, "x", listErr.Value)
}

func TestNormalizeFlexibleList_BoundaryCounts(t *testing.T) {
	// Exactly 50 unique elements is the maximum accepted.
	elems := make([]string, 50)
	for i := range elems {
		elems[i] = fmt.Sprintf(`"cal-%d"`, i)
	}

	values, isList, err := NormalizeFlexibleList("calendarId", calendarNoun, "["+strings.Join(elems, ",")+"]")
	require.NoError(t, err)
	assert.True(t, isList)
	assert.Len(t, values, 50)
}

func TestRewriteSingleQuoted(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantChanged bool
	}{
		{
			name:        "basic rewrite",
			input:       `['a','b']`,
			want:        `["a","b"]`,
			wantChanged: true,
		},
		{
			name:        "already double quoted",
			input:       `["a","b"]`,
			want:        `["a","b"]`,
			wantChanged: false,
		},
		{
			name:        "email values",
			input:       `['johns-calendar@example.com']`,
			want:        `["johns-calendar@example.com"]`,
			wantChanged: true,
		},
		{
			name:        "double quote inside element escaped",
			input:       `['say "hi"']`,
			want:        `["say \"hi\""]`,
			wantChanged: true,
		},
		{
			name:        "whitespace between delimiters",
			input:       `[ 'a' , 'b' ]`,
			want:        `[ "a" , "b" ]`,
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := rewriteSingleQuoted(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}
