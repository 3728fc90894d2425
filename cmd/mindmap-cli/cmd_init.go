package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/mindmap/client"
)

// profileConfig holds connection settings for a single profile.
type profileConfig struct {
	URL string `yaml:"url"`
}

// profilesFile is the top-level config file structure.
type profilesFile struct {
	Profiles      map[string]profileConfig `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

// active returns the selected profile, "default" when none is named.
func (f *profilesFile) active() (profileConfig, bool) {
	if f == nil || f.Profiles == nil {
		return profileConfig{}, false
	}
	name := f.ActiveProfile
	if name == "" {
		name = "default"
	}
	p, ok := f.Profiles[name]
	return p, ok
}

func newInitCmd() *cobra.Command {
	var (
		initURL     string
		profileName string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up mindmap CLI configuration",
		Long:  "Interactive setup that creates ~/.mindmap/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initURL, profileName, initURL != "")
		},
	}

	cmd.Flags().StringVar(&initURL, "server", "", "Server URL (non-interactive mode)")
	cmd.Flags().StringVar(&profileName, "profile", "default", "Profile name to write")
	return cmd
}

func runInit(url, profile string, nonInteractive bool) error {
	if !nonInteractive {
		fmt.Println()
		fmt.Println("  " + brand.Sprint("mindmap setup"))
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)

		fmt.Printf("  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		url = strings.TrimSpace(line)
	}

	if url == "" {
		url = defaultURL
	}

	ver, err := testConnection(url)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	cfgPath, err := writeConfig(url, profile)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("%s Connected to %s (v%s)\n", good.Sprint("✓"), url, ver)
	fmt.Printf("%s Config saved to %s\n", good.Sprint("✓"), cfgPath)

	if !nonInteractive {
		fmt.Println()
		fmt.Println("  Next steps:")
		fmt.Println("    mindmap doctor          # Full diagnostic check")
		fmt.Println("    mindmap gallery list    # Browse saved maps")
		fmt.Println("    mindmap --help          # See all commands")
		fmt.Println()
	}

	return nil
}

func testConnection(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.New(url).Health(ctx)
	if err != nil {
		return "", err
	}
	if health.Version == "" {
		return "unknown", nil
	}
	return health.Version, nil
}

// writeConfig merges the profile into the existing config file, if any.
func writeConfig(url, profile string) (string, error) {
	cfgPath, cfg, err := loadConfig()
	if cfgPath == "" {
		return "", err
	}
	if cfg == nil {
		cfg = &profilesFile{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profileConfig{}
	}
	if profile == "" {
		profile = "default"
	}
	cfg.Profiles[profile] = profileConfig{URL: url}
	cfg.ActiveProfile = profile

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}

	return cfgPath, nil
}
