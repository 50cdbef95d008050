package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	retrieveK    int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the passages most relevant to a query",
	Long: `Ranks indexed passages by semantic similarity to the query and prints
the top results, without generating an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "number of passages (default rag.top_k)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	k := retrieveK
	if k == 0 {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		k = settings.RAG.TopK
	}

	svc, release, err := openService(cmd, NeedEmbedding)
	if err != nil {
		return err
	}
	defer release()

	result, err := svc.Retrieve(commandContext(cmd), strings.Join(args, " "), k)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, toPassages(result))
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Heading.Render("Results:"))
	cmd.Println()
	printSources(cmd, st, result, true)
	return nil
}
