package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/recommend"
	"github.com/arnavs06/HackNYU/internal/sourcing"
)

func newPicksCmd(a *app) *cobra.Command {
	picks := &cobra.Command{
		Use:   "picks",
		Short: "Work with the curated eco picks catalog",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Score the curated catalog and write it as JSON, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}
			catalog, err := sourcing.OpenCatalog(a.cfg.Catalog)
			if err != nil {
				return fmt.Errorf("error loading catalog: %w", err)
			}
			scored := exportPicks(ecoscore.NewCalculator(table), catalog)

			data, err := json.MarshalIndent(scored, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("error writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d picks to %s\n", len(scored), out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to stdout)")

	picks.AddCommand(export)
	return picks
}

// exportPicks scores every catalog item and orders them by score, keeping
// catalog order among equal scores.
func exportPicks(calc *ecoscore.Calculator, catalog *sourcing.Catalog) []models.Candidate {
	items := catalog.Items()
	in := make([]recommend.Extracted, len(items))
	for i, it := range items {
		attrs := it.Attributes()
		in[i] = recommend.Extracted{Candidate: it.Candidate(), Attributes: &attrs}
	}
	scored := recommend.ScoreAll(calc, in)
	slices.SortStableFunc(scored, func(x, y models.Candidate) int {
		return y.EcoScore - x.EcoScore
	})
	return scored
}
