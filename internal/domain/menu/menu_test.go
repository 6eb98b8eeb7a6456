package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Layout(t *testing.T) {
	c := Default()

	foods := c.List(Food)
	drinks := c.List(Drink)
	require.Len(t, foods, 4)
	require.Len(t, drinks, 4)

	assert.Equal(t, "Bibimbap", foods[0].Name)
	assert.Equal(t, int64(30_000), foods[0].UnitPrice)
	assert.Equal(t, "Omija Tea", drinks[3].Name)
	assert.Len(t, c.All(), 8)
}

func TestFindByName(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		query     string
		wantName  string
		wantPrice int64
		wantErr   error
	}{
		{name: "exact", query: "Bulgogi", wantName: "Bulgogi", wantPrice: 35_000},
		{name: "lower case", query: "soju", wantName: "Soju", wantPrice: 35_000},
		{name: "padded mixed case", query: "  oMiJa tEa ", wantName: "Omija Tea", wantPrice: 20_000},
		{name: "unknown", query: "ramen", wantErr: ErrNotFound},
		{name: "prefix is not a match", query: "Omija", wantErr: ErrNotFound},
		{name: "empty", query: "", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := c.FindByName(tt.query)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, it.Name)
			assert.Equal(t, tt.wantPrice, it.UnitPrice)
		})
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog(
		Item{Name: "Soju", UnitPrice: 1, Category: Drink},
		Item{Name: "SOJU", UnitPrice: 2, Category: Drink},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewCatalog(Item{Name: "Free", UnitPrice: -1, Category: Food})
	require.Error(t, err)

	_, err = NewCatalog(Item{Name: "  ", UnitPrice: 1, Category: Food})
	require.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("1")
	require.True(t, ok)
	assert.Equal(t, Food, c)

	c, ok = ParseCategory(" Drink ")
	require.True(t, ok)
	assert.Equal(t, Drink, c)

	_, ok = ParseCategory("dessert")
	assert.False(t, ok)
}
