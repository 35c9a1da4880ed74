package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"semdex/internal/index"
	"semdex/internal/store"
)

// Search result limits.
const (
	defaultTopK = 5
	maxTopK     = 20
)

// clampTopK forces a requested result count into [1, maxTopK] before it
// reaches the store.
func clampTopK(k int) int {
	if k < 1 {
		return 1
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing codebase search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	// A missing index is not fatal: the client can call reindex_codebase.
	if stats, err := e.st.Stats(cmd.Context()); err == nil {
		if stats.TotalChunks == 0 {
			e.logger.Warn("no data indexed yet, run 'semdex index <path>' or call reindex_codebase")
		} else {
			e.logger.Info("mcp server ready", "chunks", stats.TotalChunks, "files", stats.UniqueFiles)
		}
	}

	s := mcpserver.NewMCPServer("semdex", "1.0.0", mcpserver.WithToolCapabilities(false))
	s.AddTool(searchCodebaseTool(), makeSearchHandler(e))
	s.AddTool(reindexCodebaseTool(), makeReindexHandler(e))
	s.AddTool(getIndexStatsTool(), makeStatsHandler(e))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodebaseTool() mcp.Tool {
	return mcp.NewTool("search_codebase",
		mcp.WithDescription("Search indexed codebase for relevant code using semantic search. "+
			"Returns code chunks with file locations and line numbers. "+
			"Use this to find implementations, understand code structure, "+
			"or locate specific functionality."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query. Examples: 'authentication logic', "+
				"'database connection', 'enemy AI behavior', 'user input validation'"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of results to return (default: 5, max: 20)"),
		),
		mcp.WithString("path_filter",
			mcp.Description("Only return results whose file path starts with this prefix"),
		),
	)
}

func reindexCodebaseTool() mcp.Tool {
	return mcp.NewTool("reindex_codebase",
		mcp.WithDescription("Index or re-index a codebase directory. Only changed files are "+
			"re-embedded; records for deleted files are removed."),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Absolute path of the directory to index"),
		),
		mcp.WithBoolean("clear",
			mcp.Description("Drop the existing index before indexing (default: false)"),
		),
	)
}

func getIndexStatsTool() mcp.Tool {
	return mcp.NewTool("get_index_stats",
		mcp.WithDescription("Get index statistics: total chunks, unique files, embedding dimension, and storage location."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(e *env) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		topK := clampTopK(req.GetInt("top_k", defaultTopK))
		pathFilter := req.GetString("path_filter", "")

		results, err := e.st.Search(ctx, query, topK, pathFilter)
		if errors.Is(err, store.ErrEmptyQuery) {
			return mcp.NewToolResultError("query is required and cannot be empty"), nil
		}
		if errors.Is(err, store.ErrNotIndexed) {
			return mcp.NewToolResultText("Error: no data indexed yet\n\n" +
				"Make sure to index your codebase first:\n" +
				"  semdex index /path/to/your/project\n" +
				"or call the reindex_codebase tool."), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeReindexHandler(e *env) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := req.GetString("directory", "")
		if dir == "" {
			return mcp.NewToolResultError("directory is required"), nil
		}

		if req.GetBool("clear", false) {
			if err := e.st.Clear(ctx); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
			}
		}

		stats, err := index.Reconcile(ctx, e.st, dir, index.Options{
			Extensions:    e.cfg.ExtensionSet(),
			RemoveDeleted: true,
			Workers:       e.cfg.Workers,
			Logger:        e.logger,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
		}

		summary := fmt.Sprintf(
			"Indexing complete for %s\n\n"+
				"Files: %d total, %d chunked, %d skipped, %d removed\n"+
				"Chunks inserted: %d",
			dir, stats.FilesTotal, stats.FilesChunked, stats.FilesSkipped,
			stats.FilesRemoved, stats.ChunksInserted)
		if totals, err := e.st.Stats(ctx); err == nil {
			summary += fmt.Sprintf("\nIndex now holds %d chunks from %d files",
				totals.TotalChunks, totals.UniqueFiles)
		}
		return mcp.NewToolResultText(summary), nil
	}
}

func makeStatsHandler(e *env) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := e.st.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
		}
		if stats.TotalChunks == 0 {
			return mcp.NewToolResultText("Index is empty. Run 'semdex index <path>' or call reindex_codebase."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Location: %s\nChunks: %d\nFiles: %d\nEmbedding dimension: %d",
			stats.Location, stats.TotalChunks, stats.UniqueFiles, stats.Dimension)), nil
	}
}
