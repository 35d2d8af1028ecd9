package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tunelab/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models offered by the training service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.client().ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			if len(models) == 0 {
				fmt.Fprintln(a.errOut, "no models available")
				return nil
			}
			for _, m := range models {
				fmt.Fprintln(a.out, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
