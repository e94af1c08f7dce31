package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjpl/describe-it-sub001/internal/common"
)

var cacheClearPrefix string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
	Long:  `Manage the gateway's tiered cache.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached entries",
	Long:  `Clear cached entries from both cache tiers, optionally restricted to a key prefix.`,
	RunE:  runCacheClear,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache status",
	Long:  `Show tier health and configuration for the tiered cache.`,
	RunE:  runCacheStatus,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete one cached entry",
	Long:  `Delete one cached entry from both cache tiers.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheDelete,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)

	cacheClearCmd.Flags().StringVar(&cacheClearPrefix, "prefix", "", "only clear keys with this prefix")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}

	removed := setup.Cache.Clear(cmd.Context(), cacheClearPrefix)
	fmt.Printf("Removed %d cache entries\n", removed)
	if !setup.Cache.DurableUp() && setup.Cache.DurableName() != "" {
		fmt.Println("Warning: durable tier unavailable, count is memory-tier only")
	}
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}

	memoryUp, durableUp := setup.Cache.HealthCheck(cmd.Context())

	fmt.Printf("=== Cache Status ===\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Key Prefix: %s\n", setup.Config.Cache.KeyPrefix)
	fmt.Printf("  Durable Backend: %s\n", setup.Config.Cache.DurableBackend)
	fmt.Printf("  TTL Settings:\n")
	fmt.Printf("    Descriptions: %d seconds\n", setup.Config.Cache.DescriptionsTTL)
	fmt.Printf("    Vocabulary: %d seconds\n", setup.Config.Cache.VocabularyTTL)
	fmt.Printf("    Images: %d seconds\n", setup.Config.Cache.ImagesTTL)
	fmt.Printf("    Default: %d seconds\n", setup.Config.Cache.DefaultTTL)
	fmt.Println()

	fmt.Printf("Tier Health:\n")
	fmt.Printf("  Memory: up=%v entries=%d\n", memoryUp, setup.Cache.MemoryLen())
	if setup.Cache.DurableName() == "" {
		fmt.Printf("  Durable: not configured\n")
	} else {
		fmt.Printf("  Durable (%s): up=%v\n", setup.Cache.DurableName(), durableUp)
	}
	return nil
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}

	setup.Cache.Delete(cmd.Context(), args[0])
	fmt.Printf("Deleted cache entry: %s\n", args[0])
	return nil
}
