package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"nft-assistant.toml"}

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server    string `toml:"server"`
	Chain     string `toml:"chain,omitempty"`
	TimeRange string `toml:"time_range,omitempty"`
	Currency  string `toml:"currency,omitempty"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var serverURL string
	var chain string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a nft-assistant.toml configuration file in the current directory.

This file stores the relay server URL and default query settings.

EXAMPLES:
  # Create config with default server
  nft-assistant config init

  # Create config for a specific server
  nft-assistant config init --server https://assistant.example.com

  # Overwrite existing config
  nft-assistant config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(serverURL, chain, force)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:5000", "relay server URL")
	cmd.Flags().StringVar(&chain, "chain", "ethereum", "default blockchain")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
}

func runConfigInit(serverURL, chain string, force bool) error {
	configPath := projectConfigFiles[0]

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	content := fmt.Sprintf(`# nft-assistant configuration

server = "%s"
chain = "%s"

# Defaults for market queries
time_range = "24h"
currency = "usd"
`, serverURL, chain)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println()
	fmt.Printf("  Server: %s\n", serverURL)
	fmt.Printf("  Chain:  %s\n", chain)

	return nil
}

func runConfigShow() error {
	fmt.Println("Configuration sources (in order of precedence):")
	fmt.Println()

	fmt.Println("1. Command line flags")
	fmt.Println("   --server, --config")
	fmt.Println()

	fmt.Println("2. Environment variables")
	if env := os.Getenv("NFT_ASSISTANT_SERVER"); env != "" {
		fmt.Printf("   NFT_ASSISTANT_SERVER=%s\n", env)
	} else {
		fmt.Println("   NFT_ASSISTANT_SERVER=(not set)")
	}
	fmt.Println()

	fmt.Println("3. Project config (nft-assistant.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("   (not found)")
		} else {
			fmt.Printf("   Error: %v\n", err)
		}
	} else {
		fmt.Printf("   Loaded from: %s\n", configPath)
		if projectConfig.Server != "" {
			fmt.Printf("   server: %s\n", projectConfig.Server)
		}
		if projectConfig.Chain != "" {
			fmt.Printf("   chain: %s\n", projectConfig.Chain)
		}
		if projectConfig.TimeRange != "" {
			fmt.Printf("   time_range: %s\n", projectConfig.TimeRange)
		}
		if projectConfig.Currency != "" {
			fmt.Printf("   currency: %s\n", projectConfig.Currency)
		}
	}
	fmt.Println()

	fmt.Println("Effective configuration:")
	fmt.Printf("   Server: %s\n", getServer())
	fmt.Printf("   Chain:  %s\n", defaultChain())

	return nil
}

// defaultChain returns the default chain from the config file, or ethereum
func defaultChain() string {
	if config := loadProjectConfigSilent(); config != nil && config.Chain != "" {
		return config.Chain
	}
	return "ethereum"
}

// defaultTimeRange returns the default time range from the config file
func defaultTimeRange() string {
	if config := loadProjectConfigSilent(); config != nil && config.TimeRange != "" {
		return config.TimeRange
	}
	return "24h"
}

// defaultCurrency returns the default currency from the config file
func defaultCurrency() string {
	if config := loadProjectConfigSilent(); config != nil && config.Currency != "" {
		return config.Currency
	}
	return "usd"
}

// loadProjectConfig loads the project config from the first matching config file.
// Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	// If --config flag was provided, use that directly
	if cfgFile != "" {
		config, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return config, cfgFile, nil
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			config, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return config, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Returns nil if the file doesn't exist, but warns on parse failures.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}
