package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lucasjlepore/growth-analyzer/config"
	"github.com/lucasjlepore/growth-analyzer/pipeline"
)

func analyzeCmd(loadConfig configLoader) *cobra.Command {
	var (
		assignmentPath string
		smoothedPath   string
		outDir         string
		format         string
		history        string
		writeConfig    string
		workers        int
		overwrite      bool
		wells          []string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a whole plate and write the artifact bundle",
		Example: `growthcurve analyze --assignment plate.assignment.json --smoothed plate.smoothed.json --out out/
growthcurve analyze --write-config growth.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = format
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Output.Overwrite = overwrite
			}
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if writeConfig != "" {
				if err := config.Write(writeConfig, cfg); err != nil {
					return err
				}
				log.WithField("path", writeConfig).Info("configuration written")
				if assignmentPath == "" && smoothedPath == "" {
					return nil
				}
			}
			if outDir == "" {
				return fmt.Errorf("--out is required")
			}

			result, err := pipeline.Run(cmd.Context(), pipeline.Options{
				AssignmentPath: assignmentPath,
				SmoothedPath:   smoothedPath,
				OutDir:         outDir,
				Format:         cfg.Output.Format,
				Overwrite:      cfg.Output.Overwrite,
				Workers:        cfg.Batch.Workers,
				Wells:          wells,
				HistoryLabel:   history,
				Analysis:       cfg.Analysis,
				Logger:         log.StandardLogger(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "growthcurve analyze complete\n")
			fmt.Fprintf(out, "Output dir:          %s\n", result.OutputDir)
			fmt.Fprintf(out, "manifest.json:       %s\n", result.ManifestPath)
			if result.BaselineSummaryPath != "" {
				fmt.Fprintf(out, "baseline summary:    %s (%d wells)\n", result.BaselineSummaryPath, result.WellCount)
			}
			if result.LogPhaseSummaryPath != "" {
				fmt.Fprintf(out, "log phase summary:   %s (%d samples)\n", result.LogPhaseSummaryPath, result.SampleCount)
			}
			fmt.Fprintf(out, "annotated points:    %s\n", result.AnnotatedPointsPath)
			fmt.Fprintf(out, "notes:               %s\n", result.NotesPath)
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "warning:             %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&assignmentPath, "assignment", "", "assignment JSON with raw well rows")
	cmd.Flags().StringVar(&smoothedPath, "smoothed", "", "smoothed-curves JSON")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringVar(&format, "format", "parquet", "annotated points format (parquet|csv)")
	cmd.Flags().StringVar(&history, "history", "", "history label of the smoothed curves (default the last variant)")
	cmd.Flags().StringVar(&writeConfig, "write-config", "", "save the effective configuration to this YAML file")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent engine calls (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow writing into a non-empty output directory")
	cmd.Flags().StringSliceVar(&wells, "well", nil, "restrict baseline analysis to these wells")
	return cmd
}
