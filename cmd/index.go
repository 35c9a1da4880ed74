package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"semdex/internal/index"
	"semdex/internal/tui"
)

var (
	flagClear       bool
	flagKeepDeleted bool
	flagPlain       bool
	flagWorkers     int
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a codebase for semantic search",
	Long: `Index walks the directory tree, chunks every supported source and
prose file, embeds the chunks, and stores them. Re-running only processes
files whose content changed; records for deleted files are removed unless
--keep-deleted is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		if flagClear {
			if err := e.st.Clear(ctx); err != nil {
				return err
			}
		}

		workers := flagWorkers
		if workers == 0 {
			workers = e.cfg.Workers
		}
		opts := index.Options{
			Extensions:    e.cfg.ExtensionSet(),
			RemoveDeleted: !flagKeepDeleted,
			Workers:       workers,
			Logger:        e.logger,
		}

		start := time.Now()
		var stats *index.Stats
		if flagPlain {
			stats, err = index.Reconcile(ctx, e.st, args[0], opts)
		} else {
			stats, err = tui.RunIndexing(ctx, e.st, args[0], opts)
		}
		if err != nil {
			return err
		}

		if flagPlain {
			fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("  Files:  %d total, %d chunked, %d skipped, %d removed\n",
				stats.FilesTotal, stats.FilesChunked, stats.FilesSkipped, stats.FilesRemoved)
			fmt.Printf("  Chunks: %d inserted\n", stats.ChunksInserted)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagClear, "clear", false, "drop the existing index before indexing")
	indexCmd.Flags().BoolVar(&flagKeepDeleted, "keep-deleted", false, "keep records for files no longer on disk")
	indexCmd.Flags().BoolVar(&flagPlain, "plain", false, "plain output without the progress UI")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: SEMDEX_WORKERS or NumCPU)")
	rootCmd.AddCommand(indexCmd)
}
