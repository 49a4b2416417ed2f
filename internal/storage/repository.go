package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertReceiptSQL = `INSERT INTO alert_receipts (
        alert_id,
        product_id,
        received_at,
        expires_at
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (alert_id) DO NOTHING;`

	listRecentAlertReceiptsSQL = `SELECT
        id,
        alert_id,
        product_id,
        received_at,
        expires_at,
        created_at
    FROM alert_receipts
    ORDER BY received_at DESC
    LIMIT $1;`

	insertEventSQL = `INSERT INTO interaction_events (
        product_id,
        event_type,
        occurred_at
    ) VALUES (
        $1,$2,$3
    );`

	listRecentEventsSQL = `SELECT
        id,
        product_id,
        event_type,
        occurred_at,
        created_at
    FROM interaction_events
    ORDER BY occurred_at DESC
    LIMIT $1;`

	listEventsForProductSQL = `SELECT
        id,
        product_id,
        event_type,
        occurred_at,
        created_at
    FROM interaction_events
    WHERE product_id = $1
      AND occurred_at >= $2
      AND occurred_at < $3
    ORDER BY occurred_at;`

	countEventsSQL = `SELECT COUNT(*) FROM interaction_events;`
)

// AlertJournal defines write-only persistence of alert receipts plus the
// listing used by the show command.
type AlertJournal interface {
	InsertAlertReceipt(ctx context.Context, receipt AlertReceipt) error
	ListRecentAlertReceipts(ctx context.Context, limit int) ([]AlertReceipt, error)
}

// EventJournal defines persistence of interaction events.
type EventJournal interface {
	InsertEvent(ctx context.Context, event InteractionEvent) error
	ListRecentEvents(ctx context.Context, limit int) ([]InteractionEvent, error)
	ListEventsForProduct(ctx context.Context, productID string, from, to time.Time) ([]InteractionEvent, error)
	CountEvents(ctx context.Context) (int64, error)
}

// Store aggregates journal access for alert receipts and interaction events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlertReceipt journals a received alert. Replayed alert ids are ignored.
func (s *Store) InsertAlertReceipt(ctx context.Context, receipt AlertReceipt) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertAlertReceiptSQL,
		receipt.AlertID,
		receipt.ProductID,
		receipt.ReceivedAt,
		receipt.ExpiresAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert alert receipt: %w", execErr)
	}
	return nil
}

// ListRecentAlertReceipts lists the most recent receipts by receipt time.
func (s *Store) ListRecentAlertReceipts(ctx context.Context, limit int) ([]AlertReceipt, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertReceiptsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alert receipts: %w", queryErr)
	}
	defer rows.Close()

	receipts := make([]AlertReceipt, 0, limit)
	for rows.Next() {
		var rec AlertReceipt
		if err := rows.Scan(
			&rec.ID,
			&rec.AlertID,
			&rec.ProductID,
			&rec.ReceivedAt,
			&rec.ExpiresAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return receipts, nil
}

// InsertEvent journals an interaction event.
func (s *Store) InsertEvent(ctx context.Context, event InteractionEvent) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertEventSQL,
		event.ProductID,
		event.EventType,
		event.OccurredAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert interaction event: %w", execErr)
	}
	return nil
}

// ListRecentEvents lists the most recent interaction events.
func (s *Store) ListRecentEvents(ctx context.Context, limit int) ([]InteractionEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	return scanEvents(rows, limit)
}

// ListEventsForProduct lists one product's events within a time window.
func (s *Store) ListEventsForProduct(ctx context.Context, productID string, from, to time.Time) ([]InteractionEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listEventsForProductSQL, productID, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list events for product: %w", queryErr)
	}
	defer rows.Close()

	return scanEvents(rows, 0)
}

// CountEvents counts journaled events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countEventsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count events: %w", scanErr)
	}
	return count, nil
}

func scanEvents(rows pgx.Rows, sizeHint int) ([]InteractionEvent, error) {
	events := make([]InteractionEvent, 0, sizeHint)
	for rows.Next() {
		var event InteractionEvent
		if err := rows.Scan(
			&event.ID,
			&event.ProductID,
			&event.EventType,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

var (
	_ AlertJournal = (*Store)(nil)
	_ EventJournal = (*Store)(nil)
)
