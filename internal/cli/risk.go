package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chord233/nft-smart-assistant/pkg/client"
)

func createRiskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Contract risk analysis commands",
	}

	cmd.AddCommand(createRiskCheckCmd())
	cmd.AddCommand(createRiskCapabilityCmd("fake-collection", "Check forgery risk for a collection"))
	cmd.AddCommand(createRiskCapabilityCmd("wash-trading", "Check wash trading risk for a contract"))
	cmd.AddCommand(createRiskCapabilityCmd("rug-pull", "Check rug pull risk for a collection"))
	cmd.AddCommand(createFraudMapCmd())

	return cmd
}

func createRiskCheckCmd() *cobra.Command {
	var chain string
	var tokenID string
	var rawOutput bool

	cmd := &cobra.Command{
		Use:   "check [address]",
		Short: "Run a comprehensive risk check on a contract",
		Long: `Run a comprehensive risk check, combining fraud, wash trading,
and forgery analysis into a single normalized verdict.

EXAMPLES:
  # Check a collection on the default chain
  nft-assistant risk check 0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D

  # Check on another chain, raw JSON output
  nft-assistant risk check --chain polygon --json 0x9df8Aa7C681f33E442A0d57B838555da863504f3
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRiskCheck(chain, args[0], tokenID, rawOutput)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "blockchain (default from config)")
	cmd.Flags().StringVar(&tokenID, "token-id", "", "optional token ID")
	cmd.Flags().BoolVar(&rawOutput, "json", false, "print the full JSON response")

	return cmd
}

func createRiskCapabilityCmd(capability, short string) *cobra.Command {
	var chain string
	var tokenID string

	cmd := &cobra.Command{
		Use:   capability + " [address]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRiskCapability(capability, chain, args[0], tokenID)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "blockchain (default from config)")
	if capability == "wash-trading" {
		cmd.Flags().StringVar(&tokenID, "token-id", "", "optional token ID")
	}

	return cmd
}

func createFraudMapCmd() *cobra.Command {
	var chain string

	cmd := &cobra.Command{
		Use:   "fraud-map",
		Short: "Fetch chain-wide fraud activity data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFraudMap(chain)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "blockchain (default from config)")

	return cmd
}

func runRiskCheck(chain, address, tokenID string, rawOutput bool) error {
	if chain == "" {
		chain = defaultChain()
	}

	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	report, err := c.ComprehensiveRisk(ctx, chain, address, tokenID)
	if err != nil {
		return fmt.Errorf("risk check failed: %w", err)
	}

	if rawOutput {
		return printJSON(report)
	}

	fmt.Printf("Risk check: %s on %s\n", address, chain)
	fmt.Println()

	if s := report.Summary; s != nil {
		fmt.Printf("  Risk tier:       %s (%.0f%%)\n", strings.ToUpper(s.RiskTier), s.RiskPercent)
		fmt.Printf("  Wash trading:    %s\n", yesNo(s.WashTradingDetected))
		fmt.Printf("  Fake collection: %.0f%%\n", s.FakeCollectionProbability*100)
		fmt.Printf("  Rug pull risk:   %s\n", s.RugPullRisk)
		fmt.Println()
		fmt.Printf("  %s\n", s.Summary)
		for _, rec := range s.Recommendations {
			fmt.Printf("    - %s\n", rec)
		}
	}

	if len(report.PartialErrors) > 0 {
		fmt.Println()
		fmt.Println("  Some analyses were unavailable:")
		for section, msg := range report.PartialErrors {
			fmt.Printf("    %s: %s\n", section, msg)
		}
	}

	return nil
}

func runRiskCapability(capability, chain, address, tokenID string) error {
	if chain == "" {
		chain = defaultChain()
	}

	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var (
		report *client.RiskReport
		err    error
	)
	switch capability {
	case "fake-collection":
		report, err = c.FakeCollectionRisk(ctx, chain, address)
	case "wash-trading":
		report, err = c.WashTradingRisk(ctx, chain, address, tokenID)
	case "rug-pull":
		report, err = c.RugPullRisk(ctx, chain, address)
	default:
		return fmt.Errorf("unknown capability: %s", capability)
	}
	if err != nil {
		return fmt.Errorf("%s check failed: %w", capability, err)
	}

	return printJSON(report)
}

func runFraudMap(chain string) error {
	if chain == "" {
		chain = defaultChain()
	}

	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report, err := c.FraudMap(ctx, chain)
	if err != nil {
		return fmt.Errorf("fraud map fetch failed: %w", err)
	}

	return printJSON(report)
}

func yesNo(b bool) string {
	if b {
		return "DETECTED"
	}
	return "not detected"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
