// Package query implements the in-memory filter and sort pipeline applied to
// the studio collections. Every function returns a new slice and leaves its
// input untouched.
package query

import (
	"slices"
	"strconv"
	"strings"
)

// Searchable records expose the text fields and tags matched by a search term.
type Searchable interface {
	SearchText() []string
	SearchTags() []string
}

// Categorized records decide membership in a named category themselves.
type Categorized interface {
	MatchesCategory(key string) bool
}

// Related records carry a weak reference to a project.
type Related interface {
	RelatedProjectID() (int, bool)
}

// BySearchTerm keeps records where any text field or tag contains term,
// ignoring case. A blank term returns the input unchanged.
func BySearchTerm[T Searchable](items []T, term string) []T {
	if strings.TrimSpace(term) == "" {
		return slices.Clone(items)
	}
	needle := strings.ToLower(term)
	return filter(items, func(item T) bool {
		for _, field := range item.SearchText() {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		for _, tag := range item.SearchTags() {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	})
}

// ByCategory keeps records in the category. An empty key is the identity.
func ByCategory[T Categorized](items []T, key string) []T {
	if key == "" {
		return slices.Clone(items)
	}
	return filter(items, func(item T) bool { return item.MatchesCategory(key) })
}

// ByRelation keeps records whose project reference equals relatedID. The id
// arrives as text from query strings: empty is the identity and a
// non-integer matches nothing.
func ByRelation[T Related](items []T, relatedID string) []T {
	relatedID = strings.TrimSpace(relatedID)
	if relatedID == "" {
		return slices.Clone(items)
	}
	id, err := strconv.Atoi(relatedID)
	if err != nil {
		return []T{}
	}
	return ByRelationID(items, id)
}

// ByRelationID keeps records referencing project id. Records without a
// reference never match.
func ByRelationID[T Related](items []T, id int) []T {
	return filter(items, func(item T) bool {
		ref, ok := item.RelatedProjectID()
		return ok && ref == id
	})
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
