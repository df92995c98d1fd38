package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the server's graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Graph.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("graph stats: %w", err)
			}
			return output(stats, func() {
				formatTable([]string{"NODES", "MAX KM"}, [][]string{
					{strconv.Itoa(stats.Nodes), km(stats.MaxDistance)},
				})
			}, strconv.Itoa(stats.Nodes))
		},
	}
}
