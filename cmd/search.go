package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"semdex/internal/store"
)

var (
	flagTopK       int
	flagPathFilter string
	flagPretty     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed codebase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		query := strings.Join(args, " ")
		results, err := e.st.Search(cmd.Context(), query, clampTopK(flagTopK), flagPathFilter)
		if errors.Is(err, store.ErrNotIndexed) {
			return fmt.Errorf("no data indexed yet — run 'semdex index <path>' first")
		}
		if err != nil {
			return err
		}

		out := formatSearchResults(query, results)
		if flagPretty {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err == nil {
				if rendered, err := r.Render(out); err == nil {
					fmt.Print(rendered)
					return nil
				}
			}
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagTopK, "top-k", 5, "number of results to return")
	searchCmd.Flags().StringVar(&flagPathFilter, "path-filter", "", "only return results whose file path starts with this prefix")
	searchCmd.Flags().BoolVar(&flagPretty, "pretty", false, "render results with terminal markdown styling")
	rootCmd.AddCommand(searchCmd)
}

// formatSearchResults renders hits as markdown-flavored text: one block per
// result with location, relevance, and a fenced snippet. Shared by the CLI
// and the MCP tool.
func formatSearchResults(query string, results []store.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q\n\n"+
			"This could mean:\n"+
			"1. The codebase hasn't been indexed yet (run: semdex index <path>)\n"+
			"2. No code matches this query\n"+
			"3. Try rephrasing your query with different keywords", query)
	}

	divider := strings.Repeat("=", 80)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for: %q\n\n%s\n\n", len(results), query, divider)

	for i, r := range results {
		fmt.Fprintf(&sb, "Result #%d\n", i+1)
		fmt.Fprintf(&sb, "File: %s\n", r.FilePath)
		if r.StartLine > 0 && r.EndLine > 0 {
			fmt.Fprintf(&sb, "Lines: %d-%d\n", r.StartLine, r.EndLine)
		}
		fmt.Fprintf(&sb, "Relevance: %.4f\n\n", r.Score)

		ext := strings.TrimPrefix(filepath.Ext(r.FilePath), ".")
		if ext == "" {
			ext = "txt"
		}
		fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", ext, r.Content)
		fmt.Fprintf(&sb, "%s\n\n", strings.Repeat("-", 80))
	}

	sb.WriteString(divider + "\n\n")
	sb.WriteString("Search Tips:\n")
	sb.WriteString("- Use specific terms for better results (e.g., 'user authentication' vs 'code')\n")
	sb.WriteString("- Increase top_k parameter to see more results\n")
	sb.WriteString("- Results are ordered by relevance (lower score = more relevant)")
	return sb.String()
}
