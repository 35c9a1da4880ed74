package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var flagForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the entire index",
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
			fmt.Println("Index is already empty.")
			return nil
		}

		if !flagForce {
			fmt.Printf("Delete %d chunks from %d files at %s? [y/N] ",
				stats.TotalChunks, stats.UniqueFiles, stats.Location)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := e.st.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Index cleared.")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}
