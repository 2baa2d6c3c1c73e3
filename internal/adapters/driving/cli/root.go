// Package cli implements the visarag command line.
package cli

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/logger"
)

// version is set at link time.
var version = "dev"

// Dependencies wires the commands to core services.
// Set by main before Execute.
type Dependencies struct {
	Settings  driving.SettingsService
	Index     driving.IndexService
	Retrieval driving.RetrievalService

	// Answer grounds an answer model on retrieved chunks. Optional.
	Answer driving.AnswerService

	// LoadCurrent reads the current build into Retrieval.
	// Returns domain.ErrNotFound when nothing has been published.
	LoadCurrent func(ctx context.Context) error

	// WatchCorpus signals after files under root change.
	WatchCorpus func(ctx context.Context, root string) (<-chan struct{}, error)

	// WatchBuilds calls onChange when a new build is published,
	// including by another process.
	WatchBuilds func(ctx context.Context, onChange func(id string)) error

	// NewScheduler creates a background rebuilder for dataDir.
	NewScheduler func(cfg SchedulerOptions) driving.Scheduler

	// MetricsHandler serves Prometheus metrics. Optional.
	MetricsHandler http.Handler
}

// SchedulerOptions configures a background rebuilder.
type SchedulerOptions struct {
	DataDir    string
	Interval   time.Duration
	Triggers   <-chan struct{}
	RunAtStart bool
	OnBuilt    func(*domain.BuildRecord)
}

var (
	deps             = &Dependencies{}
	settingsService  driving.SettingsService
	indexService     driving.IndexService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "visarag",
	Short: "Retrieval over visa and immigration policy documents",
	Long: `visarag turns a corpus of visa policy documents laid out as
data/<country>/<visa_type>/<file> into a searchable vector index, and
retrieves the passages most relevant to a question, optionally restricted
to one country or visa type.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetDependencies installs the services used by the commands.
func SetDependencies(d *Dependencies) {
	if d == nil {
		d = &Dependencies{}
	}
	deps = d
	settingsService = d.Settings
	indexService = d.Index
	retrievalService = d.Retrieval
	answerService = d.Answer
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Command output goes to stdout so
// results can be piped; logs stay on stderr.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
