package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bjpl/describe-it-sub001/internal/common"
	"github.com/bjpl/describe-it-sub001/internal/credentials"
	"github.com/bjpl/describe-it-sub001/internal/models"
	"github.com/bjpl/describe-it-sub001/internal/utils"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Credential resolution commands",
	Long:  `Inspect and refresh resolved credentials for the external services.`,
}

var credentialsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resolved credential status",
	Long:  `Show the resolved source and validity for every known service. Values are masked.`,
	RunE:  runCredentialsStatus,
}

var credentialsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force credential re-resolution",
	Long:  `Force a full re-resolution of all service credentials, then show their status.`,
	RunE:  runCredentialsRefresh,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsStatusCmd)
	credentialsCmd.AddCommand(credentialsRefreshCmd)
}

func runCredentialsStatus(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}
	return printCredentialStatus(setup)
}

func runCredentialsRefresh(cmd *cobra.Command, args []string) error {
	setup, err := common.NewCommonSetup(cmd.Context())
	if err != nil {
		return err
	}

	setup.Resolver.Refresh()
	fmt.Println(utils.Info("Credentials re-resolved"))
	return printCredentialStatus(setup)
}

func printCredentialStatus(setup *common.CommonSetup) error {
	records := make([]models.CredentialRecord, 0, len(credentials.ServiceIDs()))
	for _, serviceID := range credentials.ServiceIDs() {
		records = append(records, setup.Resolver.GetConfig(serviceID))
	}

	formatter := utils.NewFormatter(setup.Config.Output.Format)
	return formatter.FormatCredentials(records, os.Stdout)
}
