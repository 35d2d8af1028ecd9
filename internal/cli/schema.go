package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tunelab/internal/hparams"
)

func newSchemaCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the hyperparameter schema in effect",
		Long:  "Shows the schema from --schema-file, else from the training service, else the built-in one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, src, err := a.resolveSchema(cmd.Context(), a.client())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(hparams.OpenAPISchema(s))
			}
			fmt.Fprintf(a.out, "# source: %s\n", src)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			form := hparams.NewRenderer(nil).Render(s)
			for _, g := range form.Groups {
				fmt.Fprintf(tw, "%s\n", g.Title)
				for _, f := range g.Fields {
					fmt.Fprintf(tw, "  %s.%s\t[%s, %s]\tdefault %s\t%s\n", f.Group, f.Key, fmtNum(f.Min), fmtNum(f.Max), fmtNum(f.Default), f.Description)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the OpenAPI schema as JSON")
	return cmd
}

func fmtNum(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
