package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Show the impact table version and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}
			materials, origins, certs := table.Counts()
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headerStyle.Render("Impact table "+table.Version))
			fmt.Fprintf(w, "  Materials:      %d\n", materials)
			fmt.Fprintf(w, "  Origins:        %d\n", origins)
			fmt.Fprintf(w, "  Certifications: %d\n", certs)
			return nil
		},
	}
}
