package cmd

import (
	"fmt"
	"io"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/markdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var repairCmd = &cobra.Command{
	Use:   "repair [file]",
	Short: "Close unbalanced markdown markers in partial text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		healer, err := markdown.NewHealer(config.Get().Markdown.Healer)
		if err != nil {
			return err
		}
		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), healer.Heal(string(data)))
		return err
	},
}

func init() {
	repairCmd.Flags().String("healer", "parser", "healer to use (heuristic or parser)")
	viper.BindPFlag("markdown.healer", repairCmd.Flags().Lookup("healer"))
	rootCmd.AddCommand(repairCmd)
}
