package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"herd-alerts/internal/app"
)

var (
	simulateProducts []string
	simulateBursts   int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Feed synthetic alerts through the lifecycle manager and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(simulateProducts) == 0 {
			return errors.New("--product must be provided at least once")
		}

		opts := app.SimulateOptions{
			ProductIDs: simulateProducts,
			Bursts:     simulateBursts,
		}

		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringSliceVar(&simulateProducts, "product", nil, "Product identifier to alert on (repeatable)")
	simulateCmd.Flags().IntVar(&simulateBursts, "bursts", 1, "Number of alert bursts per product")
}
