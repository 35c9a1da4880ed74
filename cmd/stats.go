package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.st.Stats(cmd.Context())
		if err != nil {
			return err
		}

		if stats.TotalChunks == 0 {
			fmt.Println("Index is empty. Run 'semdex index <path>' to build it.")
			return nil
		}
		fmt.Printf("Location:  %s\n", stats.Location)
		fmt.Printf("Chunks:    %d\n", stats.TotalChunks)
		fmt.Printf("Files:     %d\n", stats.UniqueFiles)
		fmt.Printf("Dimension: %d\n", stats.Dimension)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
