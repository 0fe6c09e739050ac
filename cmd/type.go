package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var typeCmd = &cobra.Command{
	Use:   "type [text...]",
	Short: "Reveal text one character at a time",
	Long: `Simulates typing: the text given as arguments, or read from stdin, is
written out one character per stream.typing_interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			text = string(data)
		}

		cfg := config.Get()
		tw := stream.NewTypewriter(cfg.Stream.TypingInterval,
			stream.WithHandler(stream.NewConsoleHandler(cmd.OutOrStdout(), cmd.ErrOrStderr())),
			stream.WithCursor(cfg.Stream.Cursor),
			stream.WithName("type"),
		)
		ctx := cmd.Context()
		tw.Start(ctx, text)
		select {
		case <-tw.Done():
		case <-ctx.Done():
			tw.Stop()
			return ctx.Err()
		}
		return nil
	},
}

func init() {
	typeCmd.Flags().String("interval", "30ms", "delay between characters")
	viper.BindPFlag("stream.typing_interval", typeCmd.Flags().Lookup("interval"))
	rootCmd.AddCommand(typeCmd)
}
