package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *ArgumentSchema {
	t.Helper()
	schema, err := NewArgumentSchema("calendar_list_events", map[string]Field{
		"account": {
			Kind:    KindString,
			Pattern: AccountPattern,
		},
		"calendarId": {
			Kind:         KindString,
			FlexibleList: true,
			Noun:         ItemNoun{Singular: "calendar ID", Plural: "calendar IDs"},
		},
		"timeMin": {
			Kind:     KindString,
			Required: true,
		},
		"allDay": {
			Kind: KindBoolean,
		},
	})
	require.NoError(t, err)
	return schema
}

func TestArgumentSchema_Validate(t *testing.T) {
	schema := testSchema(t)

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name: "valid minimal arguments",
			args: map[string]interface{}{"timeMin": "2025-01-01T00:00:00Z"},
		},
		{
			name: "valid full arguments",
			args: map[string]interface{}{
				"account":    "work@example.com",
				"calendarId": `["primary","team"]`,
				"timeMin":    "2025-01-01T00:00:00Z",
				"allDay":     true,
			},
		},
		{
			name:    "missing required field",
			args:    map[string]interface{}{"calendarId": "primary"},
			wantErr: "timeMin is required",
		},
		{
			name: "native array rejected for flexible field",
			args: map[string]interface{}{
				"calendarId": []interface{}{"primary", "team"},
				"timeMin":    "2025-01-01T00:00:00Z",
			},
			wantErr: "calendarId must be a string, not an array",
		},
		{
			name: "native array rejected for account selector",
			args: map[string]interface{}{
				"account": []interface{}{"a", "b"},
				"timeMin": "2025-01-01T00:00:00Z",
			},
			wantErr: "account must be a string",
		},
		{
			name: "account pattern violation",
			args: map[string]interface{}{
				"account": "Work Account!",
				"timeMin": "2025-01-01T00:00:00Z",
			},
			wantErr: "account contains invalid characters",
		},
		{
			name: "wrong type for boolean",
			args: map[string]interface{}{
				"timeMin": "2025-01-01T00:00:00Z",
				"allDay":  "yes",
			},
			wantErr: "allDay must be a boolean",
		},
		{
			name: "number where string expected",
			args: map[string]interface{}{
				"timeMin": 1735689600,
			},
			wantErr: "timeMin must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestArgumentSchema_Validate_MultipleViolations(t *testing.T) {
	schema := testSchema(t)

	err := schema.Validate(map[string]interface{}{
		"account": 7,
		"allDay":  "nope",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account must be a string")
	assert.Contains(t, err.Error(), "allDay must be a boolean")
	assert.Contains(t, err.Error(), "timeMin is required")
}

func TestArgumentSchema_Normalize(t *testing.T) {
	schema := testSchema(t)

	t.Run("single value stays a string", func(t *testing.T) {
		out, err := schema.Normalize(map[string]interface{}{
			"calendarId": "primary",
			"timeMin":    "2025-01-01T00:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, "primary", out["calendarId"])
	})

	t.Run("encoded list becomes a string slice", func(t *testing.T) {
		out, err := schema.Normalize(map[string]interface{}{
			"calendarId": `["primary","team@example.com"]`,
			"timeMin":    "2025-01-01T00:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"primary", "team@example.com"}, out["calendarId"])
	})

	t.Run("absent field stays absent", func(t *testing.T) {
		out, err := schema.Normalize(map[string]interface{}{
			"timeMin": "2025-01-01T00:00:00Z",
		})
		require.NoError(t, err)
		_, present := out["calendarId"]
		assert.False(t, present)
	})

	t.Run("policy error propagates verbatim", func(t *testing.T) {
		_, err := schema.Normalize(map[string]interface{}{
			"calendarId": `["a","a"]`,
			"timeMin":    "2025-01-01T00:00:00Z",
		})
		require.Error(t, err)
		assert.Equal(t, "Duplicate calendar IDs are not allowed: a", err.Error())
	})

	t.Run("input map is not mutated", func(t *testing.T) {
		args := map[string]interface{}{
			"calendarId": `["a","b"]`,
			"timeMin":    "2025-01-01T00:00:00Z",
		}
		_, err := schema.Normalize(args)
		require.NoError(t, err)
		assert.Equal(t, `["a","b"]`, args["calendarId"])
	})
}

func TestNewArgumentSchema_BadPattern(t *testing.T) {
	_, err := NewArgumentSchema("broken", map[string]Field{
		"field": {Kind: KindString, Pattern: "([unclosed"},
	})
	require.Error(t, err)
}
