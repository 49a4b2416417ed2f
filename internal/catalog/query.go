package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceBucket enumerates the coarse price ranges offered by the UI.
type PriceBucket string

const (
	PriceAll     PriceBucket = "All"
	PriceUnder1K PriceBucket = "<1000"
	Price1KTo5K  PriceBucket = "1000-5000"
	PriceAbove5K PriceBucket = ">5000"
)

// SortKey enumerates the supported orderings.
type SortKey string

const (
	SortDefault    SortKey = "default"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortRatingDesc SortKey = "rating-desc"
)

// Selection holds the user-controlled filter and sort parameters. The zero
// value is not useful; DefaultSelection returns the neutral state.
type Selection struct {
	Category     string
	Price        PriceBucket
	SearchTerm   string
	Sort         SortKey
	TrendingOnly bool
}

// DefaultSelection is the neutral selection: everything visible, no reorder.
func DefaultSelection() Selection {
	return Selection{Category: "All", Price: PriceAll, Sort: SortDefault}
}

var (
	price1K = decimal.NewFromInt(1000)
	price5K = decimal.NewFromInt(5000)
)

// Project applies the selection to the catalog and returns the resulting
// ordered slice. Stages run in fixed order: trending, category, price bucket,
// search, sort. The function is pure: identical inputs produce identical
// output, and the input slice is never mutated.
func Project(entries []Entry, sel Selection, trending map[ProductID]struct{}) []Entry {
	result := make([]Entry, 0, len(entries))
	term := strings.ToLower(sel.SearchTerm)

	for _, e := range entries {
		if sel.TrendingOnly {
			if _, ok := trending[e.ID]; !ok {
				continue
			}
		}
		if sel.Category != "" && sel.Category != "All" && e.Category != sel.Category {
			continue
		}
		if !inBucket(e.Price, sel.Price) {
			continue
		}
		if term != "" && !matchesTerm(e, term) {
			continue
		}
		result = append(result, e)
	}

	applySort(result, sel.Sort)
	return result
}

// inBucket reports whether a price falls in the selected bucket. The middle
// bucket is inclusive on both ends; the outer buckets are strict.
func inBucket(price decimal.Decimal, bucket PriceBucket) bool {
	switch bucket {
	case PriceUnder1K:
		return price.LessThan(price1K)
	case Price1KTo5K:
		return price.GreaterThanOrEqual(price1K) && price.LessThanOrEqual(price5K)
	case PriceAbove5K:
		return price.GreaterThan(price5K)
	default:
		return true
	}
}

func matchesTerm(e Entry, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(e.Name), lowerTerm) ||
		strings.Contains(strings.ToLower(e.Brand), lowerTerm)
}

// applySort reorders in place. Stable sorts keep prior relative order on ties
// so the rendered grid does not jitter.
func applySort(entries []Entry, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Price.LessThan(entries[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[j].Price.LessThan(entries[i].Price)
		})
	case SortRatingDesc:
		sort.SliceStable(entries, func(i, j int) bool {
			return ratingOrZero(entries[j]).LessThan(ratingOrZero(entries[i]))
		})
	}
}

func ratingOrZero(e Entry) decimal.Decimal {
	if e.Rating == nil {
		return decimal.Zero
	}
	return *e.Rating
}
