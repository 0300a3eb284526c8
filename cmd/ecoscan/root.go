package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/ecoscore"
)

// app holds state shared by subcommands once the root has loaded config
type app struct {
	configPath string
	tablePath  string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ecoscan",
		Short: "EcoScan - environmental scoring for clothing",
		Long: `ecoscan scores garments from their tag details using the same impact table
as the EcoScan server, and exports the curated eco picks catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.tablePath != "" {
				cfg.Impact.TablePath = a.tablePath
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.GetConfigPath(), "Path to configuration file")
	root.PersistentFlags().StringVar(&a.tablePath, "table", "", "Impact table YAML (defaults to the embedded table)")

	root.AddCommand(newScoreCmd(a), newPicksCmd(a), newTableCmd(a))
	return root
}

func (a *app) table() (*ecoscore.Table, error) {
	if a.cfg == nil || a.cfg.Impact.TablePath == "" {
		return ecoscore.DefaultTable(), nil
	}
	t, err := ecoscore.LoadTableFile(a.cfg.Impact.TablePath)
	if err != nil {
		return nil, fmt.Errorf("error loading impact table: %w", err)
	}
	return t, nil
}
