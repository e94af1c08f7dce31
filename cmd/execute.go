package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bjpl/describe-it-sub001/internal/common"
	"github.com/bjpl/describe-it-sub001/internal/models"
	"github.com/bjpl/describe-it-sub001/internal/utils"
)

var (
	executeService    string
	executeMethod     string
	executeCacheKey   string
	executeCacheTTL   int
	executeTimeoutMs  int
	executeIdempotent bool
)

var executeCmd = &cobra.Command{
	Use:   "execute <url>",
	Short: "Execute one operation through the gateway",
	Long: `Execute a single operation through the resilient gateway: credential
resolution, cache read-through, retry with backoff, and write-through on
success.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().StringVar(&executeService, "service", "openai", "service id to authenticate as")
	executeCmd.Flags().StringVar(&executeMethod, "method", "GET", "HTTP method")
	executeCmd.Flags().StringVar(&executeCacheKey, "cache-key", "", "cache key (enables caching)")
	executeCmd.Flags().IntVar(&executeCacheTTL, "cache-ttl", 0, "cache TTL in seconds")
	executeCmd.Flags().IntVar(&executeTimeoutMs, "timeout-ms", 0, "per-attempt timeout override in milliseconds")
	executeCmd.Flags().BoolVar(&executeIdempotent, "idempotent", false, "mark the operation safe to retry")
}

func runExecute(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}

	op := models.Operation{
		Service:         executeService,
		Method:          executeMethod,
		URL:             args[0],
		TimeoutOverride: time.Duration(executeTimeoutMs) * time.Millisecond,
		Idempotent:      executeIdempotent,
		CacheKey:        executeCacheKey,
		CacheTTL:        time.Duration(executeCacheTTL) * time.Second,
	}

	resp, gwErr := setup.Gateway.Execute(cmd.Context(), op)
	if gwErr != nil {
		fmt.Println(utils.Error(fmt.Sprintf("Operation failed: %v", gwErr)))
		return fmt.Errorf("%s", gwErr.Kind)
	}

	formatter := utils.NewFormatter(setup.Config.Output.Format)
	return formatter.FormatResponse(resp, os.Stdout)
}
