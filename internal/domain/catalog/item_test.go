package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("dessert")
	var icErr *InvalidCategoryError
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, "dessert", icErr.Value)
}

func TestItem_LowStock(t *testing.T) {
	item := Item{Available: true, Stock: 5, Threshold: 20}
	assert.True(t, item.LowStock())

	item.Stock = 21
	assert.False(t, item.LowStock())

	// Unavailable items are never flagged for restocking.
	item.Stock = 0
	item.Available = false
	assert.False(t, item.LowStock())
}

func TestGroupByCategory(t *testing.T) {
	items := []Item{
		{ID: "b1", Category: CategoryBase, Price: decimal.NewFromInt(150)},
		{ID: "b2", Category: CategoryBase},
		{ID: "s1", Category: CategorySauce},
	}

	grouped := GroupByCategory(items)
	assert.Len(t, grouped[CategoryBase], 2)
	assert.Len(t, grouped[CategorySauce], 1)
	assert.Empty(t, grouped[CategoryMeat])
}
