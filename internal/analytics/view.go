package analytics

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
)

// State is the per-product view state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

// View is the toggle-and-cache state machine in front of the analytics
// fetcher. Each product moves Idle -> Loading -> Loaded on a first trigger and
// Loaded -> Idle on the next; a failed fetch falls back to Idle with nothing
// cached.
type View struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu     sync.Mutex
	states map[catalog.ProductID]State
	cache  map[catalog.ProductID]Summary
}

// NewView constructs a View over the given fetcher.
func NewView(fetcher Fetcher, logger zerolog.Logger) *View {
	return &View{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "analytics_view").Logger(),
		states:  make(map[catalog.ProductID]State),
		cache:   make(map[catalog.ProductID]Summary),
	}
}

// Toggle flips the view for one product. With a cached result it clears the
// result and fetches nothing; otherwise it issues exactly one fetch, caching
// the summary on success. A toggle while a fetch is in flight is ignored.
// Fetch failures are logged and leave the view empty; there is no automatic
// retry and no separate error state.
func (v *View) Toggle(ctx context.Context, productID catalog.ProductID) {
	v.mu.Lock()
	switch v.states[productID] {
	case StateLoaded:
		delete(v.cache, productID)
		v.states[productID] = StateIdle
		v.mu.Unlock()
		return
	case StateLoading:
		v.mu.Unlock()
		return
	}
	v.states[productID] = StateLoading
	v.mu.Unlock()

	summary, err := v.fetcher.FetchSummary(ctx, productID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.logger.Error().Err(err).Str("product_id", string(productID)).Msg("analytics fetch failed")
		v.states[productID] = StateIdle
		return
	}
	v.cache[productID] = summary
	v.states[productID] = StateLoaded
}

// State reports the current view state for a product.
func (v *View) State(productID catalog.ProductID) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[productID]
}

// Summary returns the cached result, if any.
func (v *View) Summary(productID catalog.ProductID) (Summary, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	summary, ok := v.cache[productID]
	return summary, ok
}
