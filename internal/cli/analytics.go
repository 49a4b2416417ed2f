package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	analyticsProduct string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Fetch aggregated metrics for one product",
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyticsProduct == "" {
			return errors.New("--product must be provided")
		}
		return getApp().Analytics(cmd.Context(), analyticsProduct)
	},
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsProduct, "product", "", "Product identifier to query")
}
