package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/shareaudit/cmd/config"
	"github.com/stratastor/shareaudit/cmd/scan"
	"github.com/stratastor/shareaudit/cmd/serve"
	"github.com/stratastor/shareaudit/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shareaudit",
		Short: "ShareAudit: SMB share exposure and sensitive-file audit agent",
	}

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(config.NewConfigCmd())
	rootCmd.AddCommand(scan.NewScanCmd())

	return rootCmd
}
