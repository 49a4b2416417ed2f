package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent journaled alert receipts and interaction events.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show journal")
	}
	if closeStore != nil {
		defer closeStore()
	}

	receipts, err := store.ListRecentAlertReceipts(ctx, opts.Limit)
	if err != nil {
		return err
	}

	events, err := store.ListRecentEvents(ctx, opts.Limit)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	if len(receipts) == 0 {
		fmt.Fprintln(os.Stdout, "no alert receipts found")
	} else {
		fmt.Fprintln(writer, "Received (UTC)\tProduct\tAlert ID\tExpires (UTC)")
		for _, rec := range receipts {
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\n",
				rec.ReceivedAt.UTC().Format(time.RFC3339),
				rec.ProductID,
				rec.AlertID.String(),
				rec.ExpiresAt.UTC().Format(time.RFC3339),
			)
		}
		writer.Flush()
	}

	fmt.Fprintln(os.Stdout)

	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "no interaction events found")
		return nil
	}

	fmt.Fprintln(writer, "Occurred (UTC)\tProduct\tEvent")
	for _, event := range events {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\n",
			event.OccurredAt.UTC().Format(time.RFC3339),
			event.ProductID,
			event.EventType,
		)
	}

	return writer.Flush()
}
