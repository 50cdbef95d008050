package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/connectors/filesystem"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in sync with the library directory",
	Long: `Ingests the library directory, then watches it and ingests new or
changed documents as they appear. Runs until interrupted.

Deleted files stay in the index until it is cleared and rebuilt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	dir := settings.Library.Dir
	if len(args) == 1 {
		dir = filesystem.LocalPath(args[0])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating library %s: %w", dir, err)
	}

	svc, release, err := openService(cmd, NeedEmbedding)
	if err != nil {
		return err
	}
	defer release()

	ctx := commandContext(cmd)
	st := newStyles(cmd.OutOrStdout())
	conn := filesystem.New(dir)
	defer conn.Close()

	initial, err := conn.Scan(ctx, supportsFile)
	if err != nil {
		return err
	}
	if len(initial) > 0 {
		result, err := svc.Ingest(ctx, initial)
		printIngestResult(cmd, st, result)
		if err != nil && !errors.Is(err, domain.ErrEmptyCorpus) {
			return fmt.Errorf("initial ingest failed: %w", err)
		}
	}

	changes, err := conn.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Println(st.Muted.Render(fmt.Sprintf("Watching %s (Ctrl+C to stop)", dir)))

	filesystem.Debounce(ctx, changes, filesystem.DefaultDebounce, func(batch []filesystem.Change) {
		var paths []string
		for _, c := range batch {
			if c.Type == filesystem.ChangeDeleted {
				logger.Warn("%s was removed; run 'lexrag index clear' and re-ingest to drop it", c.Path)
				continue
			}
			if supportsFile == nil || supportsFile(c.Path) {
				paths = append(paths, c.Path)
			}
		}
		if len(paths) == 0 {
			return
		}

		result, err := svc.Ingest(ctx, paths)
		printIngestResult(cmd, st, result)
		if err != nil {
			cmd.PrintErrln(st.Error.Render(fmt.Sprintf("ingest failed: %v", err)))
		}
	})
	return nil
}
