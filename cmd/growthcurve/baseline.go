package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
	"github.com/lucasjlepore/growth-analyzer/payload"
)

func baselineCmd(loadConfig configLoader) *cobra.Command {
	var (
		wells   []string
		jsonOut bool
		cleanup string
		list    bool
	)
	cmd := &cobra.Command{
		Use:     "baseline <assignment.json>",
		Short:   "Detect the blank baseline and spike readings of raw well traces",
		Example: `growthcurve baseline plate.assignment.json --well A1 --well A2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.Analysis.Baseline
			if cmd.Flags().Changed("cleanup") {
				opts.Cleanup = cleanup
			}

			a, err := payload.LoadAssignment(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list {
				sampleWells := a.SampleWells()
				for _, sample := range sortedSampleNames(sampleWells) {
					fmt.Fprintf(out, "%s: %v\n", sample, sampleWells[sample])
				}
				return nil
			}

			if len(wells) == 0 {
				wells = a.Wells()
			}
			sampleOf := a.WellSamples()
			results := make([]*growthcurve.WellAnalysis, 0, len(wells))
			for _, well := range wells {
				trace, err := a.WellSeries(well)
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{"well": well, "points": len(trace.Series)}).Debug("analyzing well")
				wa, err := growthcurve.AnalyzeWell(well, trace.Series, opts)
				if err != nil {
					return err
				}
				wa.Sample = sampleOf[well]
				wa.Replicates = trace.Replicates
				results = append(results, wa)
			}

			if jsonOut {
				return writeJSON(out, results)
			}
			for i, wa := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if wa.Sample != "" {
					fmt.Fprintf(out, "Sample: %s\n", wa.Sample)
				}
				fmt.Fprintln(out, wa.Notes)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&wells, "well", nil, "well to analyze (repeatable; default all wells)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit full results as JSON")
	cmd.Flags().StringVar(&cleanup, "cleanup", growthcurve.CleanupLNDS, "monotone cleanup strategy (lnds|greedy|none)")
	cmd.Flags().BoolVar(&list, "list", false, "list samples and their wells, then exit")
	return cmd
}
