// Package cli implements the nft-assistant command line client.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	server  string
)

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "nft-assistant",
		Short:   "NFT risk and market data CLI",
		Long:    `nft-assistant queries an NFT smart assistant relay for contract risk reports and market data.`,
		Version: version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: nft-assistant.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "relay server URL (default from config)")

	// Add subcommands
	rootCmd.AddCommand(createRiskCmd())
	rootCmd.AddCommand(createMarketCmd())
	rootCmd.AddCommand(createBlockchainsCmd())
	rootCmd.AddCommand(createChainsCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd.Execute()
}

// getServer returns the server URL from flag, env, or config file
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv("NFT_ASSISTANT_SERVER"); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}

	// 4. Default
	return "http://localhost:5000"
}
