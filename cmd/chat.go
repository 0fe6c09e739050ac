package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/stream"
	"github.com/killallgit/streamir/pkg/stream/providers"
	"github.com/killallgit/streamir/pkg/wire"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tmc/langchaingo/llms/ollama"
)

var chatCmd = &cobra.Command{
	Use:   "chat prompt...",
	Short: "Stream a model answer from Ollama to the terminal",
	Long: `Streams the answer to the prompt as it arrives. With --transcript the
finished answer is also printed as a UI message in the given format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		transcript, _ := cmd.Flags().GetString("transcript")

		llm, err := ollama.New(
			ollama.WithServerURL(cfg.Ollama.URL),
			ollama.WithModel(cfg.Ollama.DefaultModel),
		)
		if err != nil {
			return fmt.Errorf("failed to create ollama client: %w", err)
		}

		ids := idGenerator(cfg)
		conv := ir.NewConversation(ids.NewID(), ir.RoleAssistant)
		block, err := stream.NewBlockHandler(conv, ids.NewID(), ir.BlockText)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		consumer := stream.NewConsumer(
			stream.WithHandler(stream.Tee(
				block,
				stream.NewConsoleHandler(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			)),
			stream.WithName(block.ID()),
		)
		src := providers.NewLangChainSource(llm).Prompt(ctx, strings.Join(args, " "))
		consumer.Start(ctx, src)
		if err := consumer.Wait(cmd.Context()); err != nil {
			return err
		}
		log.Debug("chat %s finished: consumer %s, conversation %s", conv.ID, consumer.State(), conv.Status())
		if err := consumer.Err(); err != nil {
			return err
		}

		if transcript == "" {
			return nil
		}
		msg, err := wire.NewConverter(wire.WithIDGenerator(ids)).FromConversation(conv)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), msg, transcript)
	},
}

func init() {
	chatCmd.Flags().StringP("model", "m", "qwen3:latest", "model name")
	viper.BindPFlag("ollama.default_model", chatCmd.Flags().Lookup("model"))
	chatCmd.Flags().String("url", "http://localhost:11434", "Ollama server URL")
	viper.BindPFlag("ollama.url", chatCmd.Flags().Lookup("url"))
	chatCmd.Flags().StringP("transcript", "t", "", "also print the answer as a UI message (json or yaml)")
	rootCmd.AddCommand(chatCmd)
}
