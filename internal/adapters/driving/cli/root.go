// Package cli implements the regtrack command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands dispatch to. Injected by SetServices before
// Execute; commands guard against nil so a partially wired binary
// fails with a clear message instead of a panic.
var (
	ingestPipeline driving.IngestPipeline
	queryService   driving.QueryService
	cacheAdmin     driving.CacheAdmin
	configStore    driven.ConfigStore
	dirWatcher     DirWatcher
	downloadsDir   string
)

// DirWatcher emits paths of new PDFs in a directory. Satisfied by the
// fsnotify watch adapter.
type DirWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan string, error)
	Stop() error
}

// Services bundles everything the CLI needs.
type Services struct {
	Pipeline     driving.IngestPipeline
	Query        driving.QueryService
	Admin        driving.CacheAdmin
	Config       driven.ConfigStore
	Watcher      DirWatcher
	DownloadsDir string
}

// SetServices injects the application services into the CLI.
func SetServices(s Services) {
	ingestPipeline = s.Pipeline
	queryService = s.Query
	cacheAdmin = s.Admin
	configStore = s.Config
	dirWatcher = s.Watcher
	downloadsDir = s.DownloadsDir
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "regtrack",
	Short: "Index and query electricity regulatory commission orders",
	Long: `regtrack downloads regulatory commission orders, extracts and chunks
their text, builds vector and summary indexes, and answers questions
against them. Artifacts are cached so repeated runs only compute what
is missing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
