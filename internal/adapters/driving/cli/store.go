package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the artifact store",
	Long:  `List indexed documents, inspect their artifacts, or purge them.`,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeDescribeCmd = &cobra.Command{
	Use:   "describe [document]",
	Short: "Show a document's artifact records",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDescribe,
}

var storePurgeCmd = &cobra.Command{
	Use:   "purge [document]",
	Short: "Remove every artifact for a document",
	Long:  `Removes the document's chunks, vector index, summary and metadata. The next sync rebuilds everything from the source PDF.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStorePurge,
}

func init() {
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDescribeCmd)
	storeCmd.AddCommand(storePurgeCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreList(cmd *cobra.Command, _ []string) error {
	if cacheAdmin == nil {
		return errors.New("cache admin not configured")
	}

	identities, err := cacheAdmin.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(identities) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for _, identity := range identities {
		cmd.Printf("  %s\n", identity)
	}
	cmd.Printf("Total: %d documents\n", len(identities))
	return nil
}

func runStoreDescribe(cmd *cobra.Command, args []string) error {
	if cacheAdmin == nil {
		return errors.New("cache admin not configured")
	}

	identity := args[0]

	meta, err := cacheAdmin.Describe(context.Background(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no such document: %s", identity)
		}
		return fmt.Errorf("failed to describe document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", meta.Identity)
	if meta.SourceChecksum != "" {
		cmd.Printf("  Source checksum: %s\n\n", meta.SourceChecksum)
	}

	for _, kind := range domain.Kinds() {
		info, ok := meta.Artifacts[kind]
		if !ok {
			cmd.Printf("  %-8s absent\n", kind)
			continue
		}
		cmd.Printf("  %-8s %s, %d units, built %s\n",
			kind, info.Status, info.UnitCount, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func runStorePurge(cmd *cobra.Command, args []string) error {
	if cacheAdmin == nil {
		return errors.New("cache admin not configured")
	}

	identity := args[0]

	if err := cacheAdmin.Purge(context.Background(), identity); err != nil {
		return fmt.Errorf("failed to purge document: %w", err)
	}

	cmd.Printf("Purged %s.\n", identity)
	return nil
}
