package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/wire"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a wire message to a conversation, or back with --reverse",
	Long: `Reads a wire message ({"id","role","parts"}) and prints the conversation
it converts to. With --reverse the input is a conversation and the output is
the wire message. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolP("reverse", "r", false, "convert a conversation to a wire message")
	convertCmd.Flags().StringP("output", "o", "json", "output format (json or yaml)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	reverse, _ := cmd.Flags().GetBool("reverse")
	format, _ := cmd.Flags().GetString("output")

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	converter := wire.NewConverter(
		wire.WithIDGenerator(idGenerator(config.Get())),
		wire.WithLogger(log),
	)

	var out any
	if reverse {
		conv := &ir.Conversation{}
		if err := json.Unmarshal(data, conv); err != nil {
			return fmt.Errorf("decode conversation: %w", err)
		}
		if out, err = converter.FromConversation(conv); err != nil {
			return err
		}
	} else {
		var msg wire.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode wire message: %w", err)
		}
		conv, err := converter.ToConversation(&msg)
		if err != nil {
			return err
		}
		log.Debug("converted %d parts into %d blocks", len(msg.Parts), conv.Len())
		out = conv
	}
	return writeOutput(cmd.OutOrStdout(), out, format)
}
