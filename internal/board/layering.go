package board

import (
	"sort"

	"github.com/noah-isme/planboard-api/internal/models"
)

// liveIndexes returns the indexes of non soft-deleted items sorted by current order.
func liveIndexes(items []models.Item) []int {
	idx := make([]int, 0, len(items))
	for i := range items {
		if !items[i].SoftDeleted {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].Order < items[idx[b]].Order
	})
	return idx
}

// RenumberAll compacts the order of live items to 0..n-1 keeping their relative stacking.
// Soft-deleted items are left out of the ranking.
func RenumberAll(items []models.Item) bool {
	changed := false
	for rank, i := range liveIndexes(items) {
		if items[i].Order != rank {
			items[i].Order = rank
			changed = true
		}
	}
	return changed
}

// BringToFront gives the target the highest order (n-1) and packs the remaining live
// items into 0..n-2 by their previous order. It reports whether any order changed.
func BringToFront(items []models.Item, itemID string) bool {
	live := liveIndexes(items)
	if len(live) < 2 {
		// nothing to reorder, but keep a lone item at rank 0
		return RenumberAll(items)
	}
	target := -1
	for _, i := range live {
		if items[i].ID == itemID {
			target = i
			break
		}
	}
	if target < 0 {
		return RenumberAll(items)
	}

	changed := false
	rank := 0
	for _, i := range live {
		if i == target {
			continue
		}
		if items[i].Order != rank {
			items[i].Order = rank
			changed = true
		}
		rank++
	}
	if items[target].Order != rank {
		items[target].Order = rank
		changed = true
	}
	return changed
}

// frontOrder returns the order an item appended to the front layer should carry.
func frontOrder(items []models.Item) int {
	top := -1
	for i := range items {
		if !items[i].SoftDeleted && items[i].Order > top {
			top = items[i].Order
		}
	}
	return top + 1
}

// liveCount counts items that are not soft-deleted.
func liveCount(items []models.Item) int {
	n := 0
	for i := range items {
		if !items[i].SoftDeleted {
			n++
		}
	}
	return n
}
