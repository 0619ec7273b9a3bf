package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	configfile "github.com/gridwise-labs/regtrack/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and set configuration values stored in the regtrack config file.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Sets a configuration value and persists it immediately. Integer and boolean values are stored typed; everything else is stored as a string.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// wellKnownKeys are the settings the rest of the application reads.
var wellKnownKeys = []string{
	configfile.KeyStorageBackend,
	configfile.KeyStorageDir,
	configfile.KeyDownloadsDir,
	configfile.KeyScrapeURL,
	configfile.KeyChunkSize,
	configfile.KeyChunkOverlap,
	configfile.KeyEmbeddingURL,
	configfile.KeyEmbeddingModel,
	configfile.KeyLLMProvider,
	configfile.KeyLLMModel,
	configfile.KeyLLMAPIKey,
	configfile.KeyQueryTopK,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", configStore.Path())

	keys := make([]string, len(wellKnownKeys))
	copy(keys, wellKnownKeys)
	sort.Strings(keys)

	for _, key := range keys {
		val, ok := configStore.Get(key)
		if !ok {
			cmd.Printf("  %-22s (not set)\n", key)
			continue
		}
		if key == configfile.KeyLLMAPIKey {
			val = maskSecret(fmt.Sprintf("%v", val))
		}
		cmd.Printf("  %-22s %v\n", key, val)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key not set: %s", args[0])
	}

	cmd.Printf("%v\n", val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]

	var value any = raw
	if i, err := strconv.Atoi(raw); err == nil {
		value = i
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
