package main

import (
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lucasjlepore/growth-analyzer/config"
)

func newRootCmd() *cobra.Command {
	var (
		logLevel   string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "growthcurve",
		Short: "Baseline and log-phase analysis of plate-reader growth curves",
		Long: `Detect blank baselines in raw OD600 well traces and the exponential
growth phase of smoothed sample curves.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (debug|info|warning|error)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return config.Default(), nil
		}
		return config.Load(configPath)
	}
	cmd.AddCommand(baselineCmd(loadConfig))
	cmd.AddCommand(logPhaseCmd(loadConfig))
	cmd.AddCommand(analyzeCmd(loadConfig))
	return cmd
}

type configLoader func() (*config.Config, error)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode failed: %w", err)
	}
	return nil
}
