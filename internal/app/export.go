package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"herd-alerts/internal/storage"
)

// Export renders one product's journaled activity as CSV and/or a PNG trend
// chart, the offline counterpart of the per-product activity view.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.ProductID == "" {
		return errors.New("--product must be provided")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-24 * time.Hour)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	events, err := store.ListEventsForProduct(ctx, opts.ProductID, from, to)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		a.Logger.Info().Str("product_id", opts.ProductID).Msg("no events found for export window")
		return nil
	}

	downsampled := downsampleEvents(events, opts.MaxPoints)
	a.Logger.Info().Int("total", len(events)).Int("exported", len(downsampled)).Msg("exporting activity")

	if opts.CSVPath != "" {
		if err := writeActivityCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeActivityPNG(opts.PNGPath, opts.ProductID, events, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleEvents(events []storage.InteractionEvent, max int) []storage.InteractionEvent {
	if max <= 0 || len(events) <= max {
		return events
	}

	result := make([]storage.InteractionEvent, 0, max)
	step := float64(len(events)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(events) {
			idx = len(events) - 1
		}
		result = append(result, events[idx])
	}
	return result
}

func writeActivityCSV(path string, events []storage.InteractionEvent) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"occurred_at", "product_id", "event_type"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, event := range events {
		record := []string{
			event.OccurredAt.Format(time.RFC3339),
			event.ProductID,
			event.EventType,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeActivityPNG plots cumulative user actions over time, the same series
// the product card's activity chart shows.
func writeActivityPNG(path, productID string, all, sampled []storage.InteractionEvent) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	// Cumulative position of each sampled event within the full sequence.
	position := make(map[int64]int, len(all))
	for i, event := range all {
		position[event.ID] = i + 1
	}

	x := make([]time.Time, len(sampled))
	actions := make([]float64, len(sampled))
	for i, event := range sampled {
		x[i] = event.OccurredAt
		actions[i] = float64(position[event.ID])
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Product %s activity", productID),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "User actions",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "User actions",
				XValues: x,
				YValues: actions,
			},
		},
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
