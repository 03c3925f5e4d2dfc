package validate

import (
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "buy milk", false},
		{"surrounding spaces", "  buy milk  ", false},
		{"unicode", "牛乳を買う", false},
		{"empty string", "", true},
		{"only spaces", "   ", true},
		{"only tabs", "\t\t", true},
		{"newline", "buy\nmilk", true},
		{"at limit", strings.Repeat("a", MaxTextLength), false},
		{"over limit", strings.Repeat("a", MaxTextLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ItemText(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "ItemText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}

func TestItemTextField(t *testing.T) {
	require.NoError(t, ItemTextField("lists[0].name", "Groceries"))

	err := ItemTextField("lists[0].name", " ")
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "lists[0].name", fieldErrs[0].Field)
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "ada", false},
		{"email", "ada@example.com", false},
		{"empty", "", true},
		{"space", "ada lovelace", true},
		{"tab", "ada\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Username(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("secret"))
	assert.Error(t, Password(""))
}
