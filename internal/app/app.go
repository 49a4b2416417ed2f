package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"herd-alerts/internal/analytics"
	"herd-alerts/internal/catalog"
	"herd-alerts/internal/config"
	"herd-alerts/internal/events"
	"herd-alerts/internal/herd"
	"herd-alerts/internal/service"
	"herd-alerts/internal/storage"
	"herd-alerts/internal/stream"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) loadCatalog() []catalog.Entry {
	entries, err := catalog.Load(a.Config.Catalog.Path)
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", a.Config.Catalog.Path).
			Msg("catalog not loaded; projection will be empty")
		return nil
	}
	a.Logger.Info().Int("products", len(entries)).Msg("catalog loaded")
	return entries
}

func (a *App) newEventLogger(store *storage.Store) *events.Logger {
	var journal events.Journal
	if store != nil {
		journal = eventJournal{store: store}
	}
	return events.NewLogger(events.Options{
		CollectorURL: a.Config.Events.CollectorURL,
		HistoryLimit: a.Config.Events.HistoryLimit,
		Timeout:      a.Config.Events.RequestTimeout,
	}, journal, a.Logger)
}

func (a *App) newAnalyticsView() *analytics.View {
	client := analytics.NewClient(analytics.ClientOptions{
		BaseURL: a.Config.Analytics.BaseURL,
		Timeout: a.Config.Analytics.RequestTimeout,
	}, a.Logger)
	return analytics.NewView(client, a.Logger)
}

// Run executes the long-running alerter client.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; journal disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	entries := a.loadCatalog()
	eventLogger := a.newEventLogger(store)

	manager := herd.NewManager(a.Config.Alerts.TTL, a.Logger)
	defer manager.Stop()

	client, err := stream.Dial(ctx, stream.Options{
		URL:              a.Config.Stream.URL,
		HandshakeTimeout: a.Config.Stream.HandshakeTimeout,
	}, a.Logger)
	if err != nil {
		// Non-fatal: the user just sees no live alerts. Retry policy belongs
		// to whatever supervises this process.
		a.Logger.Error().Err(err).Msg("alert stream unavailable")
		<-ctx.Done()
		return nil
	}

	var journal storage.AlertJournal
	if store != nil {
		journal = store
	}

	svc := service.New(manager, client, eventLogger, journal, entries, a.Config.Alerts.ToastLimit, a.Logger)

	a.Logger.Info().Str("stream_url", a.Config.Stream.URL).Msg("starting herd alerter")
	err = svc.Run(ctx)
	eventLogger.Flush()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("alerter terminated with error")
		return err
	}

	a.Logger.Info().Msg("herd alerter stopped")
	return nil
}

// eventJournal adapts the storage layer to the event logger's journal hook.
type eventJournal struct {
	store *storage.Store
}

func (j eventJournal) InsertEvent(ctx context.Context, event events.Event) error {
	return j.store.InsertEvent(ctx, storage.InteractionEvent{
		ProductID:  string(event.ProductID),
		EventType:  event.Type,
		OccurredAt: event.Timestamp,
	})
}

// ExportOptions hold parameters for exporting a product's activity history.
type ExportOptions struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// SimulateOptions configure the offline simulation.
type SimulateOptions struct {
	ProductIDs []string
	Bursts     int
}
