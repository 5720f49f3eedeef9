package keyoverlay

import (
	"fmt"
	"slices"

	"github.com/dasdy/keyoverlay/db"
	"github.com/dasdy/keyoverlay/model"
	"github.com/spf13/cobra"
)

var (
	statsDBPath string
	topN        int
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collected statistics",
	Long:  `Reads the database written by run --stats and prints the most pressed keys and key pairs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, err := db.NewStorageFromPath(statsDBPath)
		if err != nil {
			return err
		}
		defer storage.Close()

		counts, err := storage.GatherAll()
		if err != nil {
			return err
		}

		slices.SortFunc(counts, func(a, b model.KeyCount) int { return b.Count - a.Count })

		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Keys:")

		for _, c := range counts[:max(0, min(topN, len(counts)))] {
			fmt.Fprintf(out, "  %q %d\n", c.Char, c.Count)
		}

		neighbors, err := db.NewNeighborCounterFromDB(storage, true)
		if err != nil {
			return fmt.Errorf("could not create neighbor tracker: %w", err)
		}

		fmt.Fprintln(out, "Pairs:")

		for _, p := range neighbors.Top(topN) {
			fmt.Fprintf(out, "  %q -> %q %d\n", p.First, p.Second, p.Count)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsDBPath, "stats", "o", "./keypresses.sqlite",
		"Statistics database written by run --stats")
	statsCmd.Flags().IntVarP(&topN, "top", "n", 20, "How many keys and pairs to show")
}
