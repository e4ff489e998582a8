package main

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/payload"
)

func logPhaseCmd(loadConfig configLoader) *cobra.Command {
	var (
		samples []string
		history string
		jsonOut bool
		list    bool
	)
	cmd := &cobra.Command{
		Use:     "logphase <smoothed.json>",
		Short:   "Detect the exponential growth phase of smoothed sample curves",
		Example: `growthcurve logphase plate.smoothed.json --sample LB --history "SG 7"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := payload.LoadSmoothed(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list {
				for _, name := range s.SampleNames() {
					sample, err := s.Sample(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %s\n", name, strings.Join(sample.HistoryLabels(), ", "))
				}
				return nil
			}

			if len(samples) == 0 {
				samples = s.SampleNames()
			}
			results := make([]*growthcurve.CurveAnalysis, 0, len(samples))
			for _, name := range samples {
				sample, err := s.Sample(name)
				if err != nil {
					return err
				}
				curve, err := sample.Curve(history)
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{"sample": name, "history": curve.Label}).Debug("analyzing curve")
				ca, err := growthcurve.AnalyzeCurve(name, curve.Series, nil, cfg.Analysis)
				if err != nil {
					return err
				}
				ca.HistoryLabel = curve.Label
				ca.Wells = curve.Wells
				results = append(results, ca)
			}

			if jsonOut {
				return writeJSON(out, results)
			}
			for i, ca := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "History: %s\n", ca.HistoryLabel)
				if len(ca.Wells) > 0 {
					fmt.Fprintf(out, "Wells: %s\n", strings.Join(ca.Wells, ", "))
				}
				fmt.Fprintln(out, ca.Notes)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&samples, "sample", nil, "sample to analyze (repeatable; default all samples)")
	cmd.Flags().StringVar(&history, "history", "", "history label to analyze (default the last variant)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit full results as JSON")
	cmd.Flags().BoolVar(&list, "list", false, "list samples and their history labels, then exit")
	return cmd
}

func sortedSampleNames(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
