package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
)

type scoreOptions struct {
	materials string
	origin    string
	certs     []string
	asJSON    bool
}

// scoreReport is the --json output of the score command
type scoreReport struct {
	Score    int                 `json:"score"`
	Grade    models.Grade        `json:"grade"`
	Material string              `json:"material"`
	Country  string              `json:"country"`
	Flags    []models.ImpactFlag `json:"flags"`
	Tips     []string            `json:"tips"`
	Table    string              `json:"tableVersion"`
}

func newScoreCmd(a *app) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a garment from its composition, origin and certifications",
		Example: `  ecoscan score --materials "80% cotton, 20% polyester" --origin Turkey
  ecoscan score --materials "100% organic cotton" --origin Portugal --cert GOTS --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.table()
			if err != nil {
				return err
			}
			report := runScore(ecoscore.NewCalculator(table), opts)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printScoreReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.materials, "materials", "m", "", `Composition, e.g. "60% cotton, 40% polyester"`)
	cmd.Flags().StringVarP(&opts.origin, "origin", "o", "", "Country of manufacture")
	cmd.Flags().StringSliceVar(&opts.certs, "cert", nil, "Certification (repeatable)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runScore(calc *ecoscore.Calculator, opts *scoreOptions) scoreReport {
	attrs := models.RawAttributes{
		Composition:    ecoscore.ParseComposition(opts.materials),
		Origin:         strings.TrimSpace(opts.origin),
		Certifications: opts.certs,
	}
	a := calc.Assess(attrs)

	country := attrs.Origin
	if a.OriginKnown {
		country = a.Country
	}
	flags := a.Flags
	if flags == nil {
		flags = []models.ImpactFlag{}
	}
	return scoreReport{
		Score:    a.Score,
		Grade:    a.Grade,
		Material: ecoscore.FormatComposition(attrs.Composition),
		Country:  country,
		Flags:    flags,
		Tips:     ecoscore.Tips(a),
		Table:    a.TableVersion,
	}
}

// gradeStyles colors grades the same way across commands
var gradeStyles = map[models.Grade]lipgloss.Style{
	models.GradeA: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	models.GradeB: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	models.GradeC: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
	models.GradeD: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	models.GradeF: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderGrade(g models.Grade) string {
	if style, ok := gradeStyles[g]; ok {
		return style.Render(string(g))
	}
	return string(g)
}

func printScoreReport(w io.Writer, r scoreReport) {
	fmt.Fprintln(w, headerStyle.Render("EcoScore"))
	fmt.Fprintf(w, "  Score:    %d/100 (grade %s)\n", r.Score, renderGrade(r.Grade))
	fmt.Fprintf(w, "  Material: %s\n", orDash(r.Material))
	fmt.Fprintf(w, "  Origin:   %s\n", orDash(r.Country))

	if len(r.Flags) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Flags"))
		for _, f := range r.Flags {
			fmt.Fprintf(w, "  [%s] %s\n", f.Severity, f.Label)
		}
	}
	if len(r.Tips) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Tips"))
		for _, tip := range r.Tips {
			fmt.Fprintf(w, "  - %s\n", tip)
		}
	}
	fmt.Fprintln(w, dimStyle.Render("impact table "+r.Table))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
