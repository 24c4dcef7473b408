package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// SortOrder names a supported ordering for search results.
type SortOrder string

const (
	SortRelevance SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortTitle     SortOrder = "title"
)

// Query describes the supported filter knobs for catalog search.
type Query struct {
	Kind     *enums.ItemKind  `json:"kind,omitempty"`
	Text     string           `json:"q,omitempty"`
	MinPrice *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice *decimal.Decimal `json:"maxPrice,omitempty"`
	Sort     SortOrder        `json:"sort,omitempty" validate:"omitempty,oneof=price_asc price_desc title"`
}

// Filter returns the items matching q in the requested order. Invalid items are skipped.
// The input slice is never reordered.
func Filter(items []Item, q Query) []Item {
	terms := strings.Fields(strings.ToLower(q.Text))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Validate() != nil {
			continue
		}
		if q.Kind != nil && item.Kind != *q.Kind {
			continue
		}
		price := item.Price()
		if q.MinPrice != nil && price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if !matchesAll(item.searchText(), terms) {
			continue
		}
		out = append(out, item)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Item) int { return a.Price().Cmp(b.Price()) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Item) int { return b.Price().Cmp(a.Price()) })
	case SortTitle:
		slices.SortStableFunc(out, func(a, b Item) int {
			return cmp.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title()))
		})
	}
	return out
}

func matchesAll(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
