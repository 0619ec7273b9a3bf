package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var queryShowContext bool

var queryCmd = &cobra.Command{
	Use:   "query [document] [question]",
	Short: "Ask a question against an indexed document",
	Long: `Retrieves the most relevant chunks from the document's vector index,
re-ranks them towards tables and figures, and asks the LLM to answer
from that context.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

var summaryCmd = &cobra.Command{
	Use:   "summary [document]",
	Short: "Print the whole-document summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	queryCmd.Flags().BoolVarP(&queryShowContext, "context", "c", false, "also print the retrieved context")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(summaryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	identity, question := args[0], args[1]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	answer, err := queryService.Ask(ctx, identity, question)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer.Answer)

	if queryShowContext && len(answer.Context) > 0 {
		cmd.Println()
		cmd.Println("Context:")
		for i, passage := range answer.Context {
			cmd.Printf("  [%d] %s\n", i+1, passage)
		}
	}

	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := queryService.Summarise(ctx, args[0])
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	cmd.Println(summary)
	return nil
}
