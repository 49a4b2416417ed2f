package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"herd-alerts/internal/catalog"
	"herd-alerts/internal/events"
	"herd-alerts/internal/herd"
)

// Simulate feeds synthetic alerts and interactions through the real lifecycle
// manager and event logger, then prints the trending-only projection. Nothing
// leaves the process: no stream, no collector, no journal.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if len(opts.ProductIDs) == 0 {
		return errors.New("at least one --product must be provided")
	}
	bursts := opts.Bursts
	if bursts <= 0 {
		bursts = 1
	}

	entries := a.loadCatalog()

	manager := herd.NewManager(a.Config.Alerts.TTL, a.Logger)
	defer manager.Stop()

	eventLogger := events.NewLogger(events.Options{
		HistoryLimit: a.Config.Events.HistoryLimit,
	}, nil, a.Logger)

	for i := 0; i < bursts; i++ {
		for _, id := range opts.ProductIDs {
			productID := catalog.ProductID(id)
			manager.Add(productID)
			eventLogger.Record(ctx, events.TypeView, productID)
		}
	}

	toasts := manager.Visible(a.Config.Alerts.ToastLimit)
	for _, toast := range toasts {
		fmt.Fprintf(os.Stdout, "🚨 Product %s is trending! (expires %s)\n",
			toast.ProductID, toast.ExpiresAt.UTC().Format(time.RFC3339))
	}

	trending := manager.TrendingIDs()
	fmt.Fprintf(os.Stdout, "\n%d active alerts across %d trending products\n\n",
		manager.ActiveCount(), len(trending))

	selection := catalog.DefaultSelection()
	selection.TrendingOnly = true
	visible := catalog.Project(entries, selection, trending)

	if len(visible) == 0 {
		fmt.Fprintln(os.Stdout, "no catalog entries match the trending set")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Product\tName\tBrand\tCategory\tPrice")
	for _, entry := range visible {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Name, entry.Brand, entry.Category, entry.Price.StringFixed(2))
	}
	return writer.Flush()
}
