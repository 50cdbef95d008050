package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

var indexClearYes bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or clear the document index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the index",
	Long: `Deletes the persisted index. Documents must be ingested again before
questions can be answered. Required after changing the embedding model.`,
	Args: cobra.NoArgs,
	RunE: runIndexClear,
}

func init() {
	indexClearCmd.Flags().BoolVarP(&indexClearYes, "yes", "y", false, "do not ask for confirmation")
	indexCmd.AddCommand(indexInfoCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	svc, release, err := openService(cmd, NeedIndex)
	if err != nil {
		return err
	}
	defer release()

	st := newStyles(cmd.OutOrStdout())
	if err := svc.Restore(commandContext(cmd)); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			cmd.Println("No index yet. Run 'lexrag ingest' to build one.")
			return nil
		}
		return fmt.Errorf("failed to load index: %w", err)
	}

	info := svc.Info()
	cmd.Println(st.Title.Render("Index"))
	cmd.Printf("  Path:            %s\n", info.Path)
	cmd.Printf("  Documents:       %d\n", info.Documents)
	cmd.Printf("  Chunks:          %d\n", info.Entries)
	cmd.Printf("  Embedding model: %s\n", info.Metadata.EmbeddingModel)
	cmd.Printf("  Dimension:       %d\n", info.Metadata.Dimension)
	if !info.Metadata.BuiltAt.IsZero() {
		cmd.Printf("  Built:           %s\n", info.Metadata.BuiltAt.Local().Format(time.DateTime))
	}
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if !indexClearYes {
		cmd.Print("Remove the index and all ingested documents? [y/N]: ")
		answer := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	svc, release, err := openService(cmd, NeedIndex)
	if err != nil {
		return err
	}
	defer release()

	if err := svc.Clear(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println(newStyles(cmd.OutOrStdout()).Success.Render("Index cleared."))
	return nil
}
