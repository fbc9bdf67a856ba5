package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/watch"
	"github.com/custodia-labs/coursemate/internal/core/domain"
)

var (
	ingestClear bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Add course documents to the index",
	Long: `Parses course documents and indexes their outline and content.

A file is ingested on its own. A directory is scanned for supported files;
courses already in the catalog are skipped. --clear empties both
collections first. --watch keeps running and ingests files as they are
created or written.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every course from the index",
	Args:  cobra.NoArgs,
	RunE:  runIngestClear,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the index before ingesting")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the directory for changes")
	ingestCmd.AddCommand(ingestClearCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if ingestWatch && !info.IsDir() {
		return errors.New("--watch needs a directory")
	}

	svc, err := loadServices(NeedIndex)
	if err != nil {
		return err
	}
	if svc.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	var report *domain.IngestReport
	if info.IsDir() {
		report, err = svc.Ingest.IngestDirectory(ctx, path, ingestClear)
	} else {
		if ingestClear {
			if err := svc.Ingest.ClearAll(ctx); err != nil {
				return fmt.Errorf("failed to clear index: %w", err)
			}
		}
		report, err = svc.Ingest.IngestFile(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", path)
	w := watch.New(svc.Ingest, path, svc.Extensions,
		watch.WithReportFunc(func(file string, r *domain.IngestReport, err error) {
			if err != nil {
				cmd.PrintErrf("%s: %v\n", file, err)
				return
			}
			if r.Courses > 0 {
				cmd.Printf("%s: added %d course(s), %d chunk(s)\n", file, r.Courses, r.Chunks)
			}
		}))
	return w.Run(ctx)
}

func runIngestClear(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(NeedIndex)
	if err != nil {
		return err
	}
	if svc.Ingest == nil {
		return errors.New("ingest service not configured")
	}
	if err := svc.Ingest.ClearAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Added %d course(s) with %d chunk(s)\n", report.Courses, report.Chunks)
	if len(report.Skipped) > 0 {
		cmd.Printf("Skipped %d existing course(s):\n", len(report.Skipped))
		for _, title := range report.Skipped {
			cmd.Printf("  - %s\n", title)
		}
	}
	if len(report.Failed) > 0 {
		files := make([]string, 0, len(report.Failed))
		for f := range report.Failed {
			files = append(files, f)
		}
		sort.Strings(files)
		cmd.Printf("Failed %d file(s):\n", len(files))
		for _, f := range files {
			cmd.Printf("  - %s: %s\n", f, report.Failed[f])
		}
	}
}
