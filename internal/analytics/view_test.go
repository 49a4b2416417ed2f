package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"herd-alerts/internal/catalog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

type stubFetcher struct {
	calls   int
	summary Summary
	err     error
}

func (s *stubFetcher) FetchSummary(context.Context, catalog.ProductID) (Summary, error) {
	s.calls++
	return s.summary, s.err
}

func TestToggleFetchesOnceThenClearsWithoutFetch(t *testing.T) {
	fetcher := &stubFetcher{summary: Summary{TotalViews: 42, ViewsLastMinute: 3}}
	view := NewView(fetcher, noopLogger())

	view.Toggle(context.Background(), "101")
	if fetcher.calls != 1 {
		t.Fatalf("first toggle must issue exactly one fetch, got %d", fetcher.calls)
	}
	if view.State("101") != StateLoaded {
		t.Fatal("state should be loaded after a successful fetch")
	}
	summary, ok := view.Summary("101")
	if !ok || summary.TotalViews != 42 {
		t.Fatalf("cached summary wrong: %+v ok=%v", summary, ok)
	}

	view.Toggle(context.Background(), "101")
	if fetcher.calls != 1 {
		t.Fatalf("second toggle must clear without fetching, got %d fetches", fetcher.calls)
	}
	if view.State("101") != StateIdle {
		t.Fatal("state should return to idle after clearing")
	}
	if _, ok := view.Summary("101"); ok {
		t.Fatal("summary should be cleared")
	}
}

func TestToggleFailureLeavesNoResult(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	view := NewView(fetcher, noopLogger())

	view.Toggle(context.Background(), "101")

	if view.State("101") != StateIdle {
		t.Fatal("failed fetch should fall back to idle")
	}
	if _, ok := view.Summary("101"); ok {
		t.Fatal("failed fetch must cache nothing")
	}

	// A later toggle starts over with a fresh fetch.
	fetcher.err = nil
	fetcher.summary = Summary{TotalAddsToCart: 7, AddToCartRatePct: decimal.NewFromFloat(12.5)}
	view.Toggle(context.Background(), "101")
	if fetcher.calls != 2 {
		t.Fatalf("expected a fresh fetch after failure, got %d calls", fetcher.calls)
	}
	if view.State("101") != StateLoaded {
		t.Fatal("state should be loaded after the retry succeeds")
	}
}

func TestViewTracksProductsIndependently(t *testing.T) {
	fetcher := &stubFetcher{summary: Summary{TotalViews: 1}}
	view := NewView(fetcher, noopLogger())

	view.Toggle(context.Background(), "101")
	if view.State("202") != StateIdle {
		t.Fatal("untouched product must stay idle")
	}
	if _, ok := view.Summary("202"); ok {
		t.Fatal("untouched product must have no summary")
	}
}
