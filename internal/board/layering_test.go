package board

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
)

func itemsWithOrders(orders ...int) []models.Item {
	items := make([]models.Item, len(orders))
	for i, order := range orders {
		items[i] = models.Item{ID: string(rune('a' + i)), ContentType: models.ContentTypeNote, Order: order}
	}
	return items
}

func assertDense(t *testing.T, items []models.Item) {
	t.Helper()
	var orders []int
	for _, item := range items {
		if !item.SoftDeleted {
			orders = append(orders, item.Order)
		}
	}
	sort.Ints(orders)
	for i, order := range orders {
		require.Equal(t, i, order, "orders must be a permutation of 0..n-1: %v", orders)
	}
}

func orderOf(items []models.Item, id string) int {
	for _, item := range items {
		if item.ID == id {
			return item.Order
		}
	}
	return -1
}

func TestBringToFrontMovesTargetToTop(t *testing.T) {
	items := itemsWithOrders(0, 1, 2, 3)

	changed := BringToFront(items, "b")

	assert.True(t, changed)
	assert.Equal(t, 3, orderOf(items, "b"))
	assert.Equal(t, 0, orderOf(items, "a"))
	assert.Equal(t, 1, orderOf(items, "c"))
	assert.Equal(t, 2, orderOf(items, "d"))
	assertDense(t, items)
}

func TestBringToFrontCompactsGaps(t *testing.T) {
	items := itemsWithOrders(7, 2, 2, 40)

	BringToFront(items, "a")

	assertDense(t, items)
	assert.Equal(t, 3, orderOf(items, "a"))
	assert.Equal(t, 2, orderOf(items, "d"))
}

func TestBringToFrontSingleItemIsNoop(t *testing.T) {
	items := itemsWithOrders(0)
	assert.False(t, BringToFront(items, "a"))
	assert.Equal(t, 0, items[0].Order)
}

func TestBringToFrontAlreadyOnTop(t *testing.T) {
	items := itemsWithOrders(0, 1, 2)
	assert.False(t, BringToFront(items, "c"))
}

func TestRenumberAllSkipsSoftDeleted(t *testing.T) {
	items := itemsWithOrders(3, 0, 5, 1)
	items[1].SoftDeleted = true

	RenumberAll(items)

	assertDense(t, items)
	assert.Equal(t, 0, orderOf(items, "d"))
	assert.Equal(t, 1, orderOf(items, "a"))
	assert.Equal(t, 2, orderOf(items, "c"))
}
