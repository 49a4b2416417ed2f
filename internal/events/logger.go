package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
)

// Well-known interaction event types. The type field is an open string so new
// kinds can flow through without a schema change.
const (
	TypeView      = "view_product"
	TypeAddToCart = "add_to_cart"
)

// Event is a single immutable user interaction.
type Event struct {
	ProductID catalog.ProductID
	Type      string
	Timestamp time.Time
}

// Journal receives a best-effort copy of every event, typically backed by the
// Postgres store. May be nil.
type Journal interface {
	InsertEvent(ctx context.Context, event Event) error
}

// Options tune the logger.
type Options struct {
	CollectorURL string
	HistoryLimit int
	Timeout      time.Duration
}

// Logger records interaction events into a bounded local history and forwards
// each one, fire and forget, to the external collector.
type Logger struct {
	opts    Options
	client  *http.Client
	journal Journal
	logger  zerolog.Logger

	mu      sync.Mutex
	history []Event

	wg sync.WaitGroup
}

// NewLogger constructs an event logger. journal may be nil.
func NewLogger(opts Options, journal Journal, logger zerolog.Logger) *Logger {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10000
	}

	return &Logger{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		journal: journal,
		logger:  logger.With().Str("component", "event_logger").Logger(),
	}
}

// Record appends the event to local history synchronously, then forwards it to
// the collector in the background. Forwarding failures are logged and dropped;
// they never roll back or block the local append.
func (l *Logger) Record(ctx context.Context, eventType string, productID catalog.ProductID) Event {
	event := Event{
		ProductID: productID,
		Type:      eventType,
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	l.history = append(l.history, event)
	if len(l.history) > l.opts.HistoryLimit {
		// Oldest entries fall off; the history is a ring, not an archive.
		l.history = l.history[len(l.history)-l.opts.HistoryLimit:]
	}
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.forward(ctx, event)
		if l.journal != nil {
			if err := l.journal.InsertEvent(ctx, event); err != nil {
				l.logger.Error().Err(err).Msg("failed to journal event")
			}
		}
	}()

	return event
}

// History returns a snapshot of the retained events in record order.
func (l *Logger) History() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.history))
	copy(out, l.history)
	return out
}

// SeriesFor returns the retained events for one product in record order, the
// raw material for the activity trend chart.
func (l *Logger) SeriesFor(productID catalog.ProductID) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var series []Event
	for _, event := range l.history {
		if event.ProductID == productID {
			series = append(series, event)
		}
	}
	return series
}

// Flush waits for in-flight forwards to settle. Used on shutdown and in tests.
func (l *Logger) Flush() {
	l.wg.Wait()
}

type wirePayload struct {
	EventType string            `json:"event_type"`
	ProductID catalog.ProductID `json:"product_id"`
	Timestamp int64             `json:"timestamp"`
}

func (l *Logger) forward(ctx context.Context, event Event) {
	if l.opts.CollectorURL == "" {
		return
	}

	payload := wirePayload{
		EventType: event.Type,
		ProductID: event.ProductID,
		Timestamp: event.Timestamp.UnixMilli(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to marshal event payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.opts.CollectorURL, bytes.NewReader(body))
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to build collector request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Error().Err(err).Str("event_type", event.Type).Msg("event forward failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.logger.Error().Err(fmt.Errorf("collector status %d", resp.StatusCode)).
			Str("event_type", event.Type).
			Msg("event forward rejected")
	}
}
