package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/orienteer/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against the config file, the server and its graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := runDoctor(cmd.Context())
			if !printChecks(results) {
				return errors.New("doctor found issues")
			}
			return nil
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

// runDoctor assumes the root PersistentPreRun has resolved flagURL and apiClient.
func runDoctor(ctx context.Context) []checkResult {
	var results []checkResult

	path, _, err := loadConfigFile()
	switch {
	case err == nil:
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: fmt.Sprintf("found (%s)", path)})
	case errors.Is(err, fs.ErrNotExist):
		// Optional; flags and env suffice.
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: "not present, using flags and env"})
	default:
		results = append(results, checkResult{Name: "Config file", Passed: false, Detail: path, Hint: err.Error()})
	}

	results = append(results, checkResult{Name: "Server URL", Passed: flagURL != "", Detail: flagURL,
		Hint: "Set --url, ORIENTEER_URL, or url in ~/.orienteer/config.yaml"})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := apiClient.Health(ctx)
	if err != nil {
		return append(results, checkResult{
			Name: "Server reachable", Passed: false, Detail: flagURL,
			Hint: fmt.Sprintf("Is orienteer-server running?\n   Error: %v", err),
		})
	}
	results = append(results, checkResult{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("v%s, %s backend", health.Version, health.Backend),
	})
	results = append(results, checkResult{
		Name: "Store", Passed: health.Store == "connected", Detail: health.Store,
		Hint: "Check the server's STORE_BACKEND settings and logs",
	})

	ready, err := apiClient.Ready(ctx)
	switch {
	case err == nil:
		results = append(results, checkResult{Name: "Graph", Passed: true, Detail: ready.Checks["graph"]})
	case client.IsUnavailable(err):
		results = append(results, checkResult{
			Name: "Graph", Passed: false, Detail: "not ready",
			Hint: "Run: orienteer build --pois ... --coords ... --items ... against the server's store",
		})
	default:
		results = append(results, checkResult{Name: "Graph", Passed: false, Hint: err.Error()})
	}

	return results
}

// printChecks writes the results and reports whether all passed.
func printChecks(results []checkResult) bool {
	fmt.Fprintln(stdout, "\nOrienteer Doctor")
	fmt.Fprintln(stdout, "================")
	fmt.Fprintln(stdout)

	allPassed := true
	for _, r := range results {
		mark := "✅"
		if !r.Passed {
			mark = "❌"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Fprintf(stdout, "%s %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Fprintf(stdout, "%s %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Fprintf(stdout, "   Hint: %s\n", r.Hint)
		}
	}

	fmt.Fprintln(stdout)
	if allPassed {
		fmt.Fprintln(stdout, "✅ All checks passed!")
	} else {
		fmt.Fprintln(stdout, "❌ Some checks failed.")
	}
	return allPassed
}
