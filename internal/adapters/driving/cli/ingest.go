package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/connectors/filesystem"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

var ingestCopy bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Add documents to the index",
	Long: `Loads, chunks and embeds documents, then adds them to the index.

Paths may be files or directories; directories are scanned for supported
files. With no paths, the library directory is ingested. Ingesting a file
again replaces its earlier entries.

Use --copy to keep a copy of each file in the library directory, so that
'lexrag watch' and later re-ingests can find it.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestCopy, "copy", false, "copy files into the library directory")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	sources, err := resolveSources(cmd, args, settings.Library.Dir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no supported documents found")
	}

	if ingestCopy {
		sources, err = filesystem.CopyToLibrary(settings.Library.Dir, sources)
		if err != nil {
			return err
		}
	}

	svc, release, err := openService(cmd, NeedEmbedding)
	if err != nil {
		return err
	}
	defer release()

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Muted.Render(fmt.Sprintf("Ingesting %d file(s)...", len(sources))))

	result, err := svc.Ingest(commandContext(cmd), sources)
	printIngestResult(cmd, st, result)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

// resolveSources expands args into files. Directories are scanned for
// supported files; with no args the library directory is scanned.
func resolveSources(cmd *cobra.Command, args []string, libraryDir string) ([]string, error) {
	if len(args) == 0 {
		if _, err := os.Stat(libraryDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("library %s does not exist; pass files to ingest", libraryDir)
		}
		args = []string{libraryDir}
	}

	var sources []string
	for _, arg := range args {
		path := filesystem.LocalPath(arg)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			// Missing files are reported by the ingest itself.
			sources = append(sources, path)
			continue
		}

		found, err := filesystem.New(path).Scan(commandContext(cmd), supportsFile)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		sources = append(sources, found...)
	}
	return sources, nil
}

func printIngestResult(cmd *cobra.Command, st *styles, result *domain.IngestResult) {
	if result == nil {
		return
	}
	for _, f := range result.Failed {
		cmd.Println(st.Warning.Render(fmt.Sprintf("  skipped %s: %v", f.Source, f.Err)))
	}
	if result.ChunkCount > 0 {
		cmd.Println(st.Success.Render(fmt.Sprintf("Indexed %d document(s), %d chunk(s).",
			result.DocumentCount, result.ChunkCount)))
	} else if result.DocumentCount > 0 {
		cmd.Println(st.Muted.Render(fmt.Sprintf("Loaded %d document(s) with no extractable text.",
			result.DocumentCount)))
	}
}
