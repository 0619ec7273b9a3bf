package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
)

var syncWatch bool

var syncCmd = &cobra.Command{
	Use:   "sync [pdf-path]",
	Short: "Download and index regulatory orders",
	Long: `Fetches new orders and runs the indexing pipeline over the downloads
directory. Documents whose artifacts are already cached are skipped.
If a PDF path is provided, only that document is processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "keep watching the downloads directory for new PDFs")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if ingestPipeline == nil {
		return errors.New("ingest pipeline not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) > 0 {
		path := args[0]
		cmd.Printf("Processing %s...\n", path)

		result, err := ingestPipeline.Process(ctx, path)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		printResult(cmd, *result)
		return nil
	}

	cmd.Println("Syncing all orders...")

	results, err := ingestPipeline.ProcessAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	failures := 0
	for _, result := range results {
		printResult(cmd, result)
		if result.Err != nil {
			failures++
		}
	}
	cmd.Printf("Synced %d documents (%d failed).\n", len(results), failures)

	if syncWatch {
		return watchDownloads(ctx, cmd)
	}
	return nil
}

// watchDownloads blocks, indexing each new PDF as it lands.
func watchDownloads(ctx context.Context, cmd *cobra.Command) error {
	if dirWatcher == nil {
		return errors.New("directory watcher not configured")
	}
	if downloadsDir == "" {
		return errors.New("downloads directory not configured")
	}

	paths, err := dirWatcher.Watch(ctx, downloadsDir)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Printf("Watching %s for new PDFs (Ctrl-C to stop)...\n", downloadsDir)

	for path := range paths {
		cmd.Printf("New file: %s\n", path)
		result, err := ingestPipeline.Process(ctx, path)
		if err != nil {
			cmd.Printf("  failed: %v\n", err)
			continue
		}
		printResult(cmd, *result)
	}

	return nil
}

func printResult(cmd *cobra.Command, result driving.ProcessResult) {
	if result.Err != nil {
		cmd.Printf("  %s: FAILED: %v\n", result.Identity, result.Err)
		return
	}

	switch {
	case result.ExtractedChunks || result.BuiltVector || result.BuiltSummary:
		cmd.Printf("  %s: indexed (%d chunks", result.Identity, result.ChunkCount)
		if result.ExtractedChunks {
			cmd.Print(", extracted")
		}
		if result.BuiltVector {
			cmd.Print(", vector")
		}
		if result.BuiltSummary {
			cmd.Print(", summary")
		}
		cmd.Println(")")
	default:
		cmd.Printf("  %s: up to date\n", result.Identity)
	}
}
