package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
	"herd-alerts/internal/events"
	"herd-alerts/internal/herd"
	"herd-alerts/internal/storage"
	"herd-alerts/internal/stream"
)

// Service wires the alert stream into the lifecycle manager and recomputes the
// catalog projection whenever the active-alert queue changes.
type Service struct {
	manager    *herd.Manager
	client     *stream.Client
	events     *events.Logger
	journal    storage.AlertJournal
	catalog    []catalog.Entry
	toastLimit int
	logger     zerolog.Logger

	mu        sync.Mutex
	selection catalog.Selection
}

// New constructs the service. journal may be nil when persistence is disabled.
func New(manager *herd.Manager, client *stream.Client, eventLogger *events.Logger, journal storage.AlertJournal, entries []catalog.Entry, toastLimit int, logger zerolog.Logger) *Service {
	if toastLimit <= 0 {
		toastLimit = 5
	}
	return &Service{
		manager:    manager,
		client:     client,
		events:     eventLogger,
		journal:    journal,
		catalog:    entries,
		toastLimit: toastLimit,
		logger:     logger.With().Str("component", "service").Logger(),
		selection:  catalog.DefaultSelection(),
	}
}

// Run consumes the alert stream until ctx is cancelled. A dropped stream is
// not fatal: already-scheduled expiries keep draining the queue and the
// service keeps serving its derived state until shutdown.
func (s *Service) Run(ctx context.Context) error {
	s.manager.SetOnChange(s.refresh)

	streamErr := make(chan error, 1)
	go func() {
		streamErr <- s.client.Listen(s.onAlert)
	}()

	select {
	case <-ctx.Done():
		if err := s.client.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("stream close failed")
		}
		<-streamErr
		return ctx.Err()
	case err := <-streamErr:
		if err != nil {
			s.logger.Error().Err(err).Msg("alert stream terminated; continuing without live alerts")
		}
		<-ctx.Done()
		return ctx.Err()
	}
}

func (s *Service) onAlert(productID catalog.ProductID) {
	alert := s.manager.Add(productID)

	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	receipt := storage.AlertReceipt{
		AlertID:    alert.ID,
		ProductID:  string(alert.ProductID),
		ReceivedAt: alert.ReceivedAt,
		ExpiresAt:  alert.ExpiresAt,
	}
	if err := s.journal.InsertAlertReceipt(ctx, receipt); err != nil {
		s.logger.Error().Err(err).Str("product_id", string(productID)).Msg("failed to journal alert receipt")
	}
}

// refresh recomputes the derived state after every queue mutation: the toast
// window, the trending set, and the catalog projection.
func (s *Service) refresh() {
	toasts := s.manager.Visible(s.toastLimit)
	trending := s.manager.TrendingIDs()
	visible := catalog.Project(s.catalog, s.Selection(), trending)

	for _, toast := range toasts {
		s.logger.Info().
			Str("product_id", string(toast.ProductID)).
			Time("expires_at", toast.ExpiresAt).
			Msg("product trending")
	}
	s.logger.Info().
		Int("active_alerts", s.manager.ActiveCount()).
		Int("trending_products", len(trending)).
		Int("visible_products", len(visible)).
		Msg("state refreshed")
}

// RecordInteraction logs a user interaction on behalf of the embedding
// surface and forwards it to the collector.
func (s *Service) RecordInteraction(ctx context.Context, eventType string, productID catalog.ProductID) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, eventType, productID)
}

// SetSelection replaces the current filter/sort selection.
func (s *Service) SetSelection(sel catalog.Selection) {
	s.mu.Lock()
	s.selection = sel
	s.mu.Unlock()
}

// Selection returns a snapshot of the current selection.
func (s *Service) Selection() catalog.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Projection applies the current selection and trending set to the catalog.
func (s *Service) Projection() []catalog.Entry {
	return catalog.Project(s.catalog, s.Selection(), s.manager.TrendingIDs())
}
