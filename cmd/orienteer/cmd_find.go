package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/orienteer/client"
)

func newFindCmd() *cobra.Command {
	var runs int
	cmd := &cobra.Command{
		Use:   "find <latitude> <longitude>",
		Short: "Plan a round trip from a starting point",
		Long: "Ask the server for the round trip from the given point that collects the most " +
			"distinct items within the distance budget. An empty route means no trip was found " +
			"or the input was rejected.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args[0], args[1])
			if err != nil {
				return err
			}

			var route *client.Route
			if cmd.Flags().Changed("runs") {
				route, err = apiClient.Routes.FindPathRuns(cmd.Context(), lat, lon, runs)
			} else {
				route, err = apiClient.Routes.FindPath(cmd.Context(), lat, lon)
			}
			if err != nil {
				return fmt.Errorf("find path: %w", err)
			}

			return output(route, func() { printRouteTable(route) }, quietRoute(route))
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 0, "Weight-search runs (server default when unset)")
	return cmd
}

func parseLatLon(latArg, lonArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", latArg)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", lonArg)
	}
	return lat, lon, nil
}

func printRouteTable(r *client.Route) {
	headers := []string{"#", "ID", "NAME", "LAT", "LON", "LEG KM"}
	rows := make([][]string, 0, len(r.Path))
	for i, s := range r.Path {
		leg := ""
		if i < len(r.Distance) {
			leg = km(r.Distance[i])
		}
		rows = append(rows, []string{
			strconv.Itoa(i), s.ID, s.Name,
			strconv.FormatFloat(s.Latitude, 'f', -1, 64),
			strconv.FormatFloat(s.Longitude, 'f', -1, 64),
			leg,
		})
	}
	formatTable(headers, rows)
	fmt.Fprintf(stdout, "\n%d items, %s km\n", len(r.Items), km(r.Total()))
}

// quietRoute lists the visited stop ids on one line.
func quietRoute(r *client.Route) string {
	ids := make([]string, len(r.Path))
	for i, s := range r.Path {
		ids[i] = s.ID
	}
	return strings.Join(ids, " ")
}
