package query

import (
	"slices"
	"time"

	"github.com/starford/vfxhub/internal/models"
)

// Dated records have a due date string.
type Dated interface {
	Due() string
}

// SortByDueDateAscending returns a stably sorted copy, earliest due date
// first. Records whose date does not parse go last, in input order.
func SortByDueDateAscending[T Dated](items []T) []T {
	type keyed struct {
		item T
		at   time.Time
		ok   bool
	}
	ks := make([]keyed, len(items))
	for i, item := range items {
		at, ok := models.ParseDate(item.Due(), time.UTC)
		ks[i] = keyed{item: item, at: at, ok: ok}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return a.at.Compare(b.at)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})
	out := make([]T, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out
}
