// Package cli provides the coursemate command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// version is set at build time.
var version = "dev"

// Needs selects which parts of the service graph a command uses.
type Needs int

const (
	// NeedSettings only needs the settings service.
	NeedSettings Needs = iota
	// NeedIndex needs the course index and embeddings.
	NeedIndex
	// NeedLLM needs the index and a language model.
	NeedLLM
)

// Options is passed to the service factory.
type Options struct {
	// DataDir overrides the directory holding the database.
	DataDir string

	// Ephemeral keeps courses and sessions in memory only.
	Ephemeral bool

	// Needs is the part of the graph to build.
	Needs Needs
}

// Services holds the driving ports the commands use. Fields beyond
// Settings are nil when the factory was asked for less.
type Services struct {
	Settings driving.SettingsService
	Query    driving.QueryService
	Search   driving.SearchService
	Ingest   driving.IngestService
	Tools    driving.ToolService

	// Extensions lists the file extensions ingestion accepts.
	Extensions []string

	// Close releases databases and clients.
	Close func() error
}

// Factory builds the services for a command.
type Factory func(opts Options) (*Services, error)

var (
	factory   Factory
	dataDir   string
	ephemeral bool
	verbose   bool

	loadedMu sync.Mutex
	loaded   *Services
)

var rootCmd = &cobra.Command{
	Use:   "coursemate",
	Short: "Ask questions about your course materials",
	Long: `coursemate answers questions about course materials using retrieval
augmented generation. Course documents are chunked, embedded and stored
locally; a language model searches them with tools and answers with sources.

Get started:
  coursemate ingest ./docs
  coursemate ask "What does lesson 2 of the MCP course cover?"
  coursemate chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A missing .env is normal.
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Loading .env: %v", err)
		}
		logger.SetVerbose(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "database directory (default ~/.coursemate/data)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep courses and sessions in memory only")
}

// SetFactory sets the function that builds services for commands.
func SetFactory(f Factory) {
	loadedMu.Lock()
	defer loadedMu.Unlock()
	factory = f
	loaded = nil
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Commands see ctx through cmd.Context.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// loadServices builds the services once per process.
func loadServices(needs Needs) (*Services, error) {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	if loaded != nil {
		return loaded, nil
	}
	if factory == nil {
		return nil, errors.New("services not configured")
	}

	svc, err := factory(Options{
		DataDir:   dataDir,
		Ephemeral: ephemeral,
		Needs:     needs,
	})
	if err != nil {
		return nil, err
	}
	loaded = svc
	return svc, nil
}

func closeServices() {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	if loaded != nil && loaded.Close != nil {
		if err := loaded.Close(); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	loaded = nil
}

func requireQuery(svc *Services) error {
	if svc.Query == nil {
		return fmt.Errorf("query service not configured")
	}
	return nil
}
