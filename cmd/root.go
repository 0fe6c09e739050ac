package cmd

import (
	"os"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var log = logger.WithComponent("cmd")

var rootCmd = &cobra.Command{
	Use:   "streamir",
	Short: "Streaming conversation toolkit",
	Long: `streamir turns chat wire messages and UI message streams into a block-based
conversation model and back, repairs partial markdown, and streams text
to the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(cfgFile); err != nil {
			return err
		}
		return logger.Init()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.streamir/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}
