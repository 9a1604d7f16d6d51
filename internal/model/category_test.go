package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_InfoIsTotal(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range AllCategories() {
		info := c.Info()
		assert.NotEmpty(t, info.Label, "label for %s", c)
		assert.NotEmpty(t, info.Glyph, "glyph for %s", c)
		assert.NotEmpty(t, info.Color, "color for %s", c)
		assert.False(t, seen[info.Label], "duplicate label %s", info.Label)
		seen[info.Label] = true
		assert.True(t, c.Valid())
	}
	assert.Len(t, seen, 7)
}

func TestCategory_InfoPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() {
		_ = Category("groceries").Info()
	})
	assert.False(t, Category("groceries").Valid())
}

func TestCategory_Display(t *testing.T) {
	assert.Equal(t, "🍽️ Food", CategoryFood.Display())
	assert.Equal(t, "🛒 Daily Needs", CategoryDaily.Display())
}

func TestPromptChoices(t *testing.T) {
	choices := PromptChoices()
	require.NotEmpty(t, choices)
	assert.Equal(t, CategoryOther, choices[len(choices)-1])
	for _, c := range choices {
		assert.True(t, c.Valid())
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{name: "identifier", input: "food", want: CategoryFood},
		{name: "upper case identifier", input: "MEDICAL", want: CategoryMedical},
		{name: "label", input: "Daily Needs", want: CategoryDaily},
		{name: "padded", input: "  shopping ", want: CategoryShopping},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "rent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClosestCategory(t *testing.T) {
	tests := []struct {
		input  string
		want   Category
		wantOK bool
	}{
		{input: "food", want: CategoryFood, wantOK: true},
		{input: "fod", want: CategoryFood, wantOK: true},
		{input: "medcal", want: CategoryMedical, wantOK: true},
		{input: "shoping", want: CategoryShopping, wantOK: true},
		{input: "daily need", want: CategoryDaily, wantOK: true},
		{input: "xyzzy", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ClosestCategory(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
