package herd

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
)

// Alert is a single received herd notification. The ID is assigned locally at
// receipt time and is the only key used for expiry, so two overlapping alerts
// for the same product age out independently.
type Alert struct {
	ID         uuid.UUID
	ProductID  catalog.ProductID
	ReceivedAt time.Time
	ExpiresAt  time.Time
}

// Manager owns the queue of active alerts. Every alert expires TTL after
// receipt; expiry is driven by a min-heap of deadlines drained by a single
// timer loop, so the TTL is a lower bound rather than an exact deadline.
type Manager struct {
	ttl      time.Duration
	logger   zerolog.Logger
	onChange func()

	mu       sync.Mutex
	queue    []Alert
	counts   map[catalog.ProductID]int
	expiries expiryHeap

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// NewManager constructs a Manager and starts its expiry loop.
func NewManager(ttl time.Duration, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		panic("alert ttl must be positive")
	}
	m := &Manager{
		ttl:    ttl,
		logger: logger.With().Str("component", "herd_manager").Logger(),
		counts: make(map[catalog.ProductID]int),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go m.expireLoop()
	return m
}

// SetOnChange registers a callback invoked after every queue mutation. Must be
// called before the manager starts receiving alerts.
func (m *Manager) SetOnChange(fn func()) {
	m.onChange = fn
}

// Add appends an alert for the product and schedules its expiry at now+TTL.
func (m *Manager) Add(productID catalog.ProductID) Alert {
	now := time.Now()
	alert := Alert{
		ID:         uuid.New(),
		ProductID:  productID,
		ReceivedAt: now,
		ExpiresAt:  now.Add(m.ttl),
	}

	m.mu.Lock()
	m.queue = append(m.queue, alert)
	m.counts[productID]++
	heap.Push(&m.expiries, expiryEntry{at: alert.ExpiresAt, id: alert.ID})
	m.mu.Unlock()

	m.signalWake()
	m.notifyChange()

	m.logger.Debug().
		Str("product_id", string(productID)).
		Str("alert_id", alert.ID.String()).
		Time("expires_at", alert.ExpiresAt).
		Msg("alert added")

	return alert
}

// Remove drops the alert with the given id. Removing an absent id, including
// one that already expired, is a no-op.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	removed := m.removeLocked(id)
	m.mu.Unlock()

	if removed {
		m.notifyChange()
	}
}

func (m *Manager) removeLocked(id uuid.UUID) bool {
	for i, alert := range m.queue {
		if alert.ID != id {
			continue
		}
		m.queue = append(m.queue[:i], m.queue[i+1:]...)
		m.counts[alert.ProductID]--
		if m.counts[alert.ProductID] <= 0 {
			delete(m.counts, alert.ProductID)
		}
		return true
	}
	return false
}

// TrendingIDs returns the set of product ids with at least one active alert.
func (m *Manager) TrendingIDs() map[catalog.ProductID]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(map[catalog.ProductID]struct{}, len(m.counts))
	for id := range m.counts {
		ids[id] = struct{}{}
	}
	return ids
}

// Visible returns the most recent limit active alerts in arrival order for
// toast display. Older active alerts stay queued and still count as trending.
func (m *Manager) Visible(limit int) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || len(m.queue) == 0 {
		return nil
	}
	start := len(m.queue) - limit
	if start < 0 {
		start = 0
	}
	visible := make([]Alert, len(m.queue)-start)
	copy(visible, m.queue[start:])
	return visible
}

// ActiveCount returns the number of active alerts.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Stop terminates the expiry loop. Pending alerts are not flushed; callers
// stopping the manager are shutting the whole process down.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Manager) expireLoop() {
	for {
		m.mu.Lock()
		var wait <-chan time.Time
		var timer *time.Timer
		if len(m.expiries) > 0 {
			d := time.Until(m.expiries[0].at)
			if d <= 0 {
				expired := m.popDueLocked(time.Now())
				m.mu.Unlock()
				for range expired {
					m.notifyChange()
				}
				continue
			}
			timer = time.NewTimer(d)
			wait = timer.C
		}
		m.mu.Unlock()

		select {
		case <-m.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-m.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-wait:
		}
	}
}

// popDueLocked removes every alert whose deadline has passed. Heap entries for
// ids already removed by hand are skipped silently.
func (m *Manager) popDueLocked(now time.Time) []uuid.UUID {
	var expired []uuid.UUID
	for len(m.expiries) > 0 && !m.expiries[0].at.After(now) {
		entry := heap.Pop(&m.expiries).(expiryEntry)
		if m.removeLocked(entry.id) {
			expired = append(expired, entry.id)
			m.logger.Debug().Str("alert_id", entry.id.String()).Msg("alert expired")
		}
	}
	return expired
}

func (m *Manager) signalWake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) notifyChange() {
	if m.onChange != nil {
		m.onChange()
	}
}

type expiryEntry struct {
	at time.Time
	id uuid.UUID
}

type expiryHeap []expiryEntry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(expiryEntry)) }

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
