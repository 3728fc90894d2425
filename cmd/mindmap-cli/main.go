package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/mindmap/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient   *client.Client
	flagURL     string
	flagFmt     string
	flagTimeout time.Duration
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("mindmap version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("mindmap version %s-dev", version)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "mindmap",
		Short:   "mindmap CLI: concept maps from transcripts and documents",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL, client.WithTimeout(flagTimeout))
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "mindmap server URL (env: MINDMAP_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 3*time.Minute, "Request timeout")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newGalleryCmd())
	rootCmd.AddCommand(newQuizCmd())
	rootCmd.AddCommand(newUploadCmd())

	return rootCmd
}

// configPath returns ~/.mindmap/config.yaml.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mindmap", "config.yaml"), nil
}

func loadConfig() (string, *profilesFile, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfgPath, nil, err
	}
	var cfg profilesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfgPath, nil, err
	}
	return cfgPath, &cfg, nil
}

// resolveConfig fills flagURL. Flag takes precedence, then env, then the
// active profile of the config file.
func resolveConfig() {
	if flagURL != defaultURL {
		return
	}
	if v := os.Getenv("MINDMAP_URL"); v != "" {
		flagURL = v
		return
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return
	}
	if p, ok := cfg.active(); ok && p.URL != "" {
		flagURL = p.URL
	}
}
