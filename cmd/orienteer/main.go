// Command orienteer builds route graphs from CSV exports and queries a
// running orienteer-server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/orienteer/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:5000"

var (
	apiClient *client.Client
	flagURL   string
	flagFmt   string
	fileCfg   configFile
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("orienteer version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("orienteer version %s-dev", version)
}

// configFile is ~/.orienteer/config.yaml.
type configFile struct {
	URL           string                   `yaml:"url"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
	Build         buildDefaults            `yaml:"build"`
}

type configProfile struct {
	URL string `yaml:"url"`
}

// buildDefaults seed the build command's flags.
type buildDefaults struct {
	Store         string  `yaml:"store"`
	BadgerDir     string  `yaml:"badger_dir"`
	DatabaseURL   string  `yaml:"database_url"`
	MaxDistanceKm float64 `yaml:"max_distance_km"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "orienteer",
		Short:   "Orienteer CLI: build route graphs and plan round trips",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL, client.WithUserAgent("orienteer-cli/"+version))
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Orienteer server URL (env: ORIENTEER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDoctorCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".orienteer", "config.yaml"), nil
}

func loadConfigFile() (string, *configFile, error) {
	path, err := configPath()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return path, nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return path, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return path, &cfg, nil
}

// profileURL returns the active profile's URL, falling back to the flat url key.
func (c *configFile) profileURL() string {
	resolved := c.URL
	if c.Profiles != nil {
		name := c.ActiveProfile
		if name == "" {
			name = "default"
		}
		if p, ok := c.Profiles[name]; ok && p.URL != "" {
			resolved = p.URL
		}
	}
	return resolved
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("ORIENTEER_URL"); v != "" {
			flagURL = v
		}
	}

	_, cfg, err := loadConfigFile()
	if err != nil {
		return
	}
	fileCfg = *cfg

	if u := cfg.profileURL(); flagURL == defaultURL && u != "" {
		flagURL = u
	}
}
