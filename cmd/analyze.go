package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jespergran98/originGuessr-Analyzer/internal/dashboard"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/sorting"
	"github.com/jespergran98/originGuessr-Analyzer/internal/stats"
)

var (
	analyzeOutput string
	analyzeSort   string
)

type analyzeReport struct {
	Summary      stats.Summary           `json:"summary" yaml:"summary"`
	Licenses     []stats.FreqEntry       `json:"licenses" yaml:"licenses"`
	Authors      []stats.FreqEntry       `json:"authors" yaml:"authors"`
	AverageScore float64                 `json:"averageScore" yaml:"average_score"`
	Top          []model.Artifact        `json:"top" yaml:"top"`
	Bottom       []model.Artifact        `json:"bottom" yaml:"bottom"`
	Lengths      dashboard.LengthLeaders `json:"lengths" yaml:"lengths"`
	Charts       dashboard.Charts        `json:"charts" yaml:"charts"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full analysis pass and print the collection report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		sess, err := dashboard.NewSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if analyzeSort != "" {
			if err := sess.SetSortKey(analyzeSort); err != nil {
				return err
			}
		}

		sess.StartAnalysis()
		if err := waitForAnalysis(ctx, sess); err != nil {
			return err
		}

		top, bottom := sess.Leaderboards()
		report := analyzeReport{
			Summary:      sess.Stats().Summary,
			Licenses:     sess.Stats().Licenses.Entries,
			Authors:      sess.Stats().Authors.Entries,
			AverageScore: sess.Progress().AverageScore,
			Top:          top,
			Bottom:       bottom,
			Lengths:      sess.LengthLeaders(5),
			Charts:       sess.Charts(),
		}

		return printReport(cmd, report)
	},
}

func waitForAnalysis(ctx context.Context, sess *dashboard.Session) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "analyze: interrupted")
		case ev := <-sess.Events():
			zap.L().Info("analysis progress",
				zap.Int("done", ev.Done),
				zap.Int("total", ev.Total),
				zap.Float64("average", ev.AverageScore),
			)
			if ev.Final {
				return nil
			}
		case <-ticker.C:
			// Backstop in case the final event was consumed elsewhere.
			if p := sess.Progress(); !p.Running && p.Done == p.Total && p.Total > 0 {
				return nil
			}
		}
	}
}

func printReport(cmd *cobra.Command, report analyzeReport) error {
	out := cmd.OutOrStdout()

	switch analyzeOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "analyze: encode json")
	case "yaml":
		return eris.Wrap(yaml.NewEncoder(out).Encode(report), "analyze: encode yaml")
	case "text":
		fmt.Fprintf(out, "Artifacts:       %d\n", report.Summary.Total)
		fmt.Fprintf(out, "Year range:      %s\n", report.Summary.YearRange)
		fmt.Fprintf(out, "Avg title:       %.1f chars\n", report.Summary.AvgTitleLength)
		fmt.Fprintf(out, "Avg description: %.1f chars\n", report.Summary.AvgDescriptionLength)
		fmt.Fprintf(out, "Playable:        %d playable, %d not\n",
			report.Summary.PlayableCount, report.Summary.NotPlayableCount)
		fmt.Fprintf(out, "Average quality: %.1f\n\n", report.AverageScore)

		fmt.Fprintln(out, "Top quality:")
		for _, a := range report.Top {
			fmt.Fprintf(out, "  %3d  %-10s %s (%s)\n",
				a.ImageQualityScore, a.ImageQuality, a.Title, model.FormatYear(a.Year))
		}
		fmt.Fprintln(out, "Bottom quality:")
		for _, a := range report.Bottom {
			fmt.Fprintf(out, "  %3d  %-10s %s (%s)\n",
				a.ImageQualityScore, a.ImageQuality, a.Title, model.FormatYear(a.Year))
		}

		fmt.Fprintln(out, "\nLicenses:")
		for _, e := range report.Licenses {
			fmt.Fprintf(out, "  %4d  %s\n", e.Count, e.Label)
		}
		return nil
	default:
		return eris.Errorf("analyze: unknown output format %q", analyzeOutput)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format: text, json, yaml")
	analyzeCmd.Flags().StringVar(&analyzeSort, "sort", string(sorting.KeyYearNewest), "sort key for the rendered view")
	rootCmd.AddCommand(analyzeCmd)
}
