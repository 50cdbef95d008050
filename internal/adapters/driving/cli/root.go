// Package cli implements the lexrag command line.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Need states which providers a command requires from the RAG service.
type Need int

// Provider needs, in increasing order.
const (
	// NeedIndex opens the index without any provider (info, clear).
	NeedIndex Need = iota
	// NeedEmbedding adds the embedding provider (ingest, retrieve).
	NeedEmbedding
	// NeedGeneration adds the generation provider (ask).
	NeedGeneration
)

// RAGOpener builds a RAG service from the current settings. The returned
// func releases provider resources.
type RAGOpener func(ctx context.Context, need Need) (driving.RAGService, func(), error)

// Dependencies are the services the commands run against.
type Dependencies struct {
	Settings driving.SettingsService
	OpenRAG  RAGOpener

	// Supports reports whether a file can be ingested.
	Supports func(path string) bool
}

var (
	version = "dev"
	verbose bool

	settingsService driving.SettingsService
	openRAG         RAGOpener
	supportsFile    func(path string) bool
)

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Ask questions about your human rights law library",
	Long: `lexrag indexes legal PDFs and answers questions grounded in them.

Ingest documents once, then ask questions in plain language. Answers are
generated only from the retrieved passages; when the library does not
cover a question, lexrag says it does not know.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic output")
}

// SetDependencies installs the services used by every command.
func SetDependencies(deps Dependencies) {
	settingsService = deps.Settings
	openRAG = deps.OpenRAG
	supportsFile = deps.Supports
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// openService opens the RAG service for a command.
func openService(cmd *cobra.Command, need Need) (driving.RAGService, func(), error) {
	if openRAG == nil {
		return nil, nil, errors.New("rag service not configured")
	}
	return openRAG(commandContext(cmd), need)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
