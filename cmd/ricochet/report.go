package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/findings"
	"github.com/invaen/ricochet/internal/report"
)

var reportFlags struct {
	correlationID string
	all           bool
	outputDir     string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown writeup for one or all findings",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.correlationID, "correlation-id", "", "render a single finding by its correlation (injection) token")
	f.BoolVar(&reportFlags.all, "all", false, "render every finding")
	f.StringVar(&reportFlags.outputDir, "output", "", "directory to write report files into (required with --all)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFlags.correlationID == "" && !reportFlags.all {
		return usageErrorf("report requires --correlation-id TOKEN or --all")
	}
	if reportFlags.correlationID != "" && reportFlags.all {
		return usageErrorf("report accepts only one of --correlation-id or --all")
	}
	if reportFlags.all && reportFlags.outputDir == "" {
		return usageErrorf("report --all requires --output DIR")
	}

	if err := openStorePath(); err != nil {
		return err
	}
	sdb, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer sdb.Close()
	store := db.NewStore(sdb)

	all, err := findings.Get(store, nil, "info")
	if err != nil {
		return err
	}

	if reportFlags.correlationID != "" {
		for _, f := range all {
			if f.Injection.Token == reportFlags.correlationID {
				body, err := report.Render(f)
				if err != nil {
					return err
				}
				fmt.Print(body)
				return nil
			}
		}
		return usageErrorf("no finding with correlation id %q", reportFlags.correlationID)
	}

	if err := os.MkdirAll(reportFlags.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range all {
		body, err := report.Render(f)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s-%s.md", f.Injection.Token, uuid.New().String()[:8])
		path := filepath.Join(reportFlags.outputDir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", path, err)
		}
		logger.Info("report written", zap.String("path", path), zap.String("correlation_id", f.Injection.Token))
	}
	logger.Info("reports finished", zap.Int("count", len(all)), zap.String("output", reportFlags.outputDir))
	return nil
}
