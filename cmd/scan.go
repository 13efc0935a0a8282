package cmd

import (
	"context"
	"fmt"
	"os"

	"beatvault/config"
	"beatvault/indexer"
	"beatvault/logger"
	"beatvault/metadata"
	"beatvault/store"
	"beatvault/types"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [folders...]",
	Short: "Index beat folders from the command line",
	Long: `Runs one index pass over the given folders (or the folders configured
through the server API when none are given) and persists the snapshot.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScan(args); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(folders []string) error {
	cfg := config.Load()
	logger.Init(logger.Config{Level: "warn"})
	defer logger.Sync()

	st := store.NewFileStore(cfg.SnapshotPath)
	pipeline := indexer.NewPipeline(
		st,
		indexer.NewFolderScanner(),
		indexer.NewBuilder(metadata.NewExtractor()),
		cfg.BatchSize,
	)

	if len(folders) == 0 {
		if _, err := st.Get(store.KeyFolders, &folders); err != nil {
			return err
		}
		if len(folders) == 0 {
			return fmt.Errorf("no folders given and none configured, run: beatvault scan <folder>")
		}
	}

	var bar *progressbar.ProgressBar
	onProgress := func(p types.ScanProgress) {
		if p.Total == 0 {
			return
		}
		if bar == nil {
			bar = progressbar.Default(int64(p.Total), "indexing")
		}
		_ = bar.Set(p.Current)
	}

	result, err := pipeline.Run(context.Background(), folders, onProgress)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Printf("\nIndexed %d beats (%d cached, %d new, %d without metadata)\n",
		len(result.Beats), result.Cached, result.Fresh, result.Degraded)
	if len(result.FolderErrors) > 0 {
		fmt.Printf("%d folder(s) could not be fully read:\n", len(result.FolderErrors))
		for _, msg := range result.FolderErrors {
			fmt.Println("  -", msg)
		}
	}
	return nil
}
