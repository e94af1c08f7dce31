package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bjpl/describe-it-sub001/internal/logger"
	"github.com/bjpl/describe-it-sub001/internal/utils"
)

var (
	cfgFile string
	debug   bool
	noColor bool
	rootCmd = &cobra.Command{
		Use:   "lingo-gateway",
		Short: "Resilient gateway for external AI and image services",
		Long: `A resilient request/cache gateway for the describe-it language
learning application: request execution with retry and backoff, a tiered
cache with a durable remote store, and multi-source credential resolution.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Set color output based on flag
			utils.SetColorOutput(!noColor)
			return logger.InitLogger(debug)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lingo-gateway.yaml)")
	rootCmd.PersistentFlags().String("durable-backend", "", "durable cache backend (redis, dynamodb, none)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Bind flags to viper
	if err := viper.BindPFlag("cache.durable_backend", rootCmd.PersistentFlags().Lookup("durable-backend")); err != nil {
		fmt.Printf("Error binding durable-backend flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".lingo-gateway" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lingo-gateway")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Printf("%s %s\n", utils.Info("Using config file:"), viper.ConfigFileUsed())
	}
}
