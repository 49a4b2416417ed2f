package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"herd-alerts/internal/catalog"
)

// Analytics fetches and prints the aggregated metrics for one product.
func (a *App) Analytics(ctx context.Context, productID string) error {
	view := a.newAnalyticsView()
	id := catalog.ProductID(productID)

	view.Toggle(ctx, id)

	summary, ok := view.Summary(id)
	if !ok {
		return fmt.Errorf("no analytics available for product %s", productID)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Total Views\t%d\n", summary.TotalViews)
	fmt.Fprintf(writer, "Total Adds to Cart\t%d\n", summary.TotalAddsToCart)
	fmt.Fprintf(writer, "Add to Cart Rate\t%s%%\n", summary.AddToCartRatePct.StringFixed(2))
	fmt.Fprintf(writer, "Views (Last Minute)\t%d\n", summary.ViewsLastMinute)
	return writer.Flush()
}
