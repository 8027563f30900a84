package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chord233/nft-smart-assistant/pkg/client"
)

func createMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Market analytics commands",
	}

	cmd.AddCommand(createMarketMetricsCmd())
	cmd.AddCommand(createMarketWashtradeCmd())

	return cmd
}

func createMarketMetricsCmd() *cobra.Command {
	var chain string
	var metrics string
	var timeRange string
	var currency string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Fetch market metrics for a chain",
		Long: `Fetch market metrics for a chain. Pass a single metric or a
comma-separated list; lists are fetched concurrently server-side.

EXAMPLES:
  # 24h volume on the default chain
  nft-assistant market metrics

  # Multiple metrics over a week
  nft-assistant market metrics --metrics volume,sales,traders --time-range 7d
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarketMetrics(chain, metrics, timeRange, currency)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "blockchain (default from config)")
	cmd.Flags().StringVar(&metrics, "metrics", "volume", "metric name, or comma-separated list")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "time range (default from config)")
	cmd.Flags().StringVar(&currency, "currency", "", "currency (default from config)")

	return cmd
}

func createMarketWashtradeCmd() *cobra.Command {
	var chain string
	var timeRange string
	var currency string

	cmd := &cobra.Command{
		Use:   "washtrade",
		Short: "Fetch wash trade volume for a chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarketWashtrade(chain, timeRange, currency)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", "", "blockchain (default from config)")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "time range (default from config)")
	cmd.Flags().StringVar(&currency, "currency", "", "currency (default from config)")

	return cmd
}

func createBlockchainsCmd() *cobra.Command {
	var sortBy string
	var limit int

	cmd := &cobra.Command{
		Use:   "blockchains",
		Short: "List blockchains known to the data provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlockchains(sortBy, limit)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort-by", "blockchain_name", "sort field")
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum entries")

	return cmd
}

func createChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List chains the relay accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains()
		},
	}
}

func runMarketMetrics(chain, metrics, timeRange, currency string) error {
	if chain == "" {
		chain = defaultChain()
	}
	if timeRange == "" {
		timeRange = defaultTimeRange()
	}
	if currency == "" {
		currency = defaultCurrency()
	}

	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	data, err := c.MultipleMetrics(ctx, chain, metrics, timeRange, currency)
	if err != nil {
		return fmt.Errorf("market metrics fetch failed: %w", err)
	}

	fmt.Printf("Market metrics for %s (%s, %s)\n", chain, data.TimeRange, data.Currency)
	fmt.Println()
	if err := printJSON(decodeRaw(data.Data)); err != nil {
		return err
	}

	if len(data.Errors) > 0 {
		fmt.Println()
		fmt.Println("Some metrics were unavailable:")
		for metric, msg := range data.Errors {
			fmt.Printf("  %s: %s\n", metric, msg)
		}
	}

	return nil
}

func runMarketWashtrade(chain, timeRange, currency string) error {
	if chain == "" {
		chain = defaultChain()
	}
	if timeRange == "" {
		timeRange = defaultTimeRange()
	}
	if currency == "" {
		currency = defaultCurrency()
	}

	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	data, err := c.WashTradeMetrics(ctx, chain, timeRange, currency)
	if err != nil {
		return fmt.Errorf("washtrade fetch failed: %w", err)
	}

	fmt.Printf("Wash trade volume for %s (%s, %s)\n", chain, data.TimeRange, data.Currency)
	fmt.Println()
	return printJSON(decodeRaw(data.Data))
}

func runBlockchains(sortBy string, limit int) error {
	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := c.ListBlockchains(ctx, sortBy, 0, limit)
	if err != nil {
		return fmt.Errorf("blockchains fetch failed: %w", err)
	}

	return printJSON(decodeRaw(resp.Data))
}

func runChains() error {
	c := client.New(getServer())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := c.Chains(ctx)
	if err != nil {
		return fmt.Errorf("chains fetch failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tDEFAULT")
	for _, name := range resp.SupportedChains {
		marker := ""
		if name == resp.DefaultChain {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, marker)
	}
	return w.Flush()
}

// decodeRaw unwraps raw JSON for printing, falling back to the raw bytes
func decodeRaw(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
