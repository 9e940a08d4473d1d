package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/dashboard"
)

var linkcheckConcurrency int

var linkcheckCmd = &cobra.Command{
	Use:   "linkcheck",
	Short: "Probe artifact image and author URLs for liveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if linkcheckConcurrency > 0 {
			cfg.LinkCheck.Concurrency = linkcheckConcurrency
		}
		if err := cfg.Validate("linkcheck"); err != nil {
			return err
		}

		sess, err := dashboard.NewSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		report, err := sess.RunLinkCheck(ctx, newChecker(cfg.LinkCheck))
		if err != nil {
			zap.L().Warn("report not persisted", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Checked %d of %d URLs, %d failed\n",
			report.Checked, report.Total, report.Failed)
		if report.Interrupted {
			fmt.Fprintln(out, "Sweep interrupted; partial results above")
		}
		for _, res := range report.Results {
			if res.OK {
				continue
			}
			if res.Error != "" {
				fmt.Fprintf(out, "  FAIL %-10s %s (%s)\n", res.Kind, res.URL, res.Error)
			} else {
				fmt.Fprintf(out, "  %d  %-10s %s\n", res.Status, res.Kind, res.URL)
			}
		}

		return nil
	},
}

func init() {
	linkcheckCmd.Flags().IntVar(&linkcheckConcurrency, "concurrency", 0, "probe workers (default from config)")
	rootCmd.AddCommand(linkcheckCmd)
}
