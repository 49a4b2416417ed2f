package catalog

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func ratingOf(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func fixtureCatalog() []Entry {
	return []Entry{
		{ID: "1", Name: "SmartPhone X", Brand: "Nova", Category: "Electronics", Price: price(999), Rating: ratingOf(3)},
		{ID: "2", Name: "Laptop Pro", Brand: "Nova", Category: "Electronics", Price: price(5001), Rating: ratingOf(5)},
		{ID: "3", Name: "Desk Lamp", Brand: "Lumen", Category: "Home", Price: price(1000)},
		{ID: "4", Name: "Standing Desk", Brand: "Lumen", Category: "Home", Price: price(5000), Rating: ratingOf(4)},
		{ID: "5", Name: "Yoga Mat", Brand: "FitCo", Category: "Fitness", Price: price(500), Rating: ratingOf(3)},
	}
}

func idsOf(entries []Entry) []ProductID {
	ids := make([]ProductID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestProjectIsDeterministic(t *testing.T) {
	entries := fixtureCatalog()
	sel := Selection{Category: "All", Price: PriceAll, SearchTerm: "o", Sort: SortPriceDesc}
	trending := map[ProductID]struct{}{"1": {}, "3": {}}

	first := Project(entries, sel, trending)
	second := Project(entries, sel, trending)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical ordered output")
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	entries := fixtureCatalog()
	original := idsOf(entries)

	Project(entries, Selection{Price: PriceAll, Sort: SortPriceDesc}, nil)

	if !reflect.DeepEqual(idsOf(entries), original) {
		t.Fatal("input slice order changed")
	}
}

func TestPriceBucketBoundaries(t *testing.T) {
	entries := fixtureCatalog()

	mid := Project(entries, Selection{Category: "All", Price: Price1KTo5K, Sort: SortDefault}, nil)
	if got := idsOf(mid); !reflect.DeepEqual(got, []ProductID{"3", "4"}) {
		t.Fatalf("1000-5000 bucket must be inclusive on both ends, got %v", got)
	}

	low := Project(entries, Selection{Category: "All", Price: PriceUnder1K, Sort: SortDefault}, nil)
	if got := idsOf(low); !reflect.DeepEqual(got, []ProductID{"1", "5"}) {
		t.Fatalf("<1000 bucket must exclude 1000, got %v", got)
	}

	high := Project(entries, Selection{Category: "All", Price: PriceAbove5K, Sort: SortDefault}, nil)
	if got := idsOf(high); !reflect.DeepEqual(got, []ProductID{"2"}) {
		t.Fatalf(">5000 bucket must exclude 5000, got %v", got)
	}
}

func TestSortPriceAscending(t *testing.T) {
	entries := []Entry{
		{ID: "a", Price: price(500)},
		{ID: "b", Price: price(200)},
		{ID: "c", Price: price(800)},
	}

	got := Project(entries, Selection{Price: PriceAll, Sort: SortPriceAsc}, nil)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"b", "a", "c"}) {
		t.Fatalf("price-asc order wrong: %v", idsOf(got))
	}
}

func TestSortRatingDescendingTreatsMissingAsZero(t *testing.T) {
	entries := []Entry{
		{ID: "a", Price: price(1), Rating: ratingOf(3)},
		{ID: "b", Price: price(1)},
		{ID: "c", Price: price(1), Rating: ratingOf(5)},
	}

	got := Project(entries, Selection{Price: PriceAll, Sort: SortRatingDesc}, nil)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"c", "a", "b"}) {
		t.Fatalf("rating-desc order wrong: %v", idsOf(got))
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	entries := []Entry{
		{ID: "a", Price: price(100)},
		{ID: "b", Price: price(100)},
		{ID: "c", Price: price(100)},
	}

	got := Project(entries, Selection{Price: PriceAll, Sort: SortPriceAsc}, nil)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"a", "b", "c"}) {
		t.Fatalf("ties must preserve prior relative order, got %v", idsOf(got))
	}
}

func TestDefaultSortPreservesFilterOrder(t *testing.T) {
	entries := fixtureCatalog()
	got := Project(entries, Selection{Category: "All", Price: PriceAll, Sort: SortDefault}, nil)
	if !reflect.DeepEqual(idsOf(got), idsOf(entries)) {
		t.Fatalf("default sort must not reorder, got %v", idsOf(got))
	}
}

func TestTrendingOnlyWithEmptySetYieldsNothing(t *testing.T) {
	entries := fixtureCatalog()
	sel := Selection{Category: "All", Price: PriceAll, Sort: SortDefault, TrendingOnly: true}

	if got := Project(entries, sel, nil); len(got) != 0 {
		t.Fatalf("empty trending set must yield empty result, got %d entries", len(got))
	}

	sel.SearchTerm = "desk"
	if got := Project(entries, sel, map[ProductID]struct{}{}); len(got) != 0 {
		t.Fatalf("empty trending set must win over other filters, got %d entries", len(got))
	}
}

func TestTrendingOnlyKeepsAlertedProducts(t *testing.T) {
	entries := fixtureCatalog()
	sel := Selection{Category: "All", Price: PriceAll, Sort: SortDefault, TrendingOnly: true}
	trending := map[ProductID]struct{}{"2": {}, "5": {}}

	got := Project(entries, sel, trending)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"2", "5"}) {
		t.Fatalf("expected trending entries only, got %v", idsOf(got))
	}
}

func TestSearchIsCaseInsensitiveAcrossNameAndBrand(t *testing.T) {
	entries := fixtureCatalog()

	byName := Project(entries, Selection{Category: "All", Price: PriceAll, SearchTerm: "phone", Sort: SortDefault}, nil)
	if !reflect.DeepEqual(idsOf(byName), []ProductID{"1"}) {
		t.Fatalf("term 'phone' should match 'SmartPhone X', got %v", idsOf(byName))
	}

	byBrand := Project(entries, Selection{Category: "All", Price: PriceAll, SearchTerm: "LUMEN", Sort: SortDefault}, nil)
	if !reflect.DeepEqual(idsOf(byBrand), []ProductID{"3", "4"}) {
		t.Fatalf("term 'LUMEN' should match brand Lumen, got %v", idsOf(byBrand))
	}
}

func TestCategoryFilterIsExact(t *testing.T) {
	entries := fixtureCatalog()
	got := Project(entries, Selection{Category: "Home", Price: PriceAll, Sort: SortDefault}, nil)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"3", "4"}) {
		t.Fatalf("expected Home entries, got %v", idsOf(got))
	}
}

func TestStagesCompose(t *testing.T) {
	entries := fixtureCatalog()
	sel := Selection{
		Category:     "Electronics",
		Price:        PriceUnder1K,
		SearchTerm:   "nova",
		Sort:         SortPriceAsc,
		TrendingOnly: true,
	}
	trending := map[ProductID]struct{}{"1": {}, "2": {}, "5": {}}

	got := Project(entries, sel, trending)
	if !reflect.DeepEqual(idsOf(got), []ProductID{"1"}) {
		t.Fatalf("composed stages wrong: %v", idsOf(got))
	}
}
