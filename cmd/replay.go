package cmd

import (
	"fmt"
	"io"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/markdown"
	"github.com/killallgit/streamir/pkg/tui"
	"github.com/killallgit/streamir/pkg/wire"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay a UI message stream and print blocks as they settle",
	Long: `Reads stream events as JSON lines or SSE "data:" frames, assembles them into a
conversation, and prints each block once it completes or fails. Tools waiting
for approval are printed when the request arrives, and can be answered
automatically with --approve or --deny.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Bool("approve", false, "approve every tool approval request")
	replayCmd.Flags().Bool("deny", false, "deny every tool approval request")
	replayCmd.Flags().Int("width", 100, "render width")
	replayCmd.Flags().Bool("plain", false, "disable syntax highlighting")
	replayCmd.MarkFlagsMutuallyExclusive("approve", "deny")
	rootCmd.AddCommand(replayCmd)
}

type replayer struct {
	out      io.Writer
	renderer *tui.Renderer
	asm      *wire.Assembler
	printed  map[string]bool
	decision string
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	width, _ := cmd.Flags().GetInt("width")
	plain, _ := cmd.Flags().GetBool("plain")
	approve, _ := cmd.Flags().GetBool("approve")
	deny, _ := cmd.Flags().GetBool("deny")

	healer, err := markdown.NewHealer(cfg.Markdown.Healer)
	if err != nil {
		return err
	}
	opts := []tui.RendererOption{tui.WithHealer(healer)}
	if plain {
		opts = append(opts, tui.WithFormatter("noop"))
	}

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	conv := ir.NewConversation("", ir.RoleAssistant)
	r := &replayer{
		out:      cmd.OutOrStdout(),
		renderer: tui.NewRenderer(width, opts...),
		asm:      wire.NewAssembler(conv, wire.WithIDGenerator(idGenerator(cfg)), wire.WithLogger(log)),
		printed:  make(map[string]bool),
	}
	switch {
	case approve:
		r.decision = "approve"
	case deny:
		r.decision = "deny"
	}

	events := 0
	for e, err := range wire.DecodeEvents(in) {
		if err != nil {
			log.Warn("skipping stream line: %v", err)
			continue
		}
		events++
		if e.Type == wire.EventStart && e.MessageID != "" {
			conv.ID = e.MessageID
		}
		if err := r.asm.Apply(e); err != nil {
			log.Warn("event %s rejected: %v", e.Type, err)
			continue
		}
		r.answerApprovals()
		r.flush()
	}

	fmt.Fprintf(r.out, "\n%d events, %d blocks, status %s\n", events, conv.Len(), conv.Status())
	return nil
}

// flush prints blocks that have settled, or that are waiting on approval,
// and have not been printed in that state yet.
func (r *replayer) flush() {
	for _, b := range r.asm.Conversation().Blocks() {
		key := b.ID + "/" + string(b.Status)
		tool, isTool := b.Tool()
		switch {
		case isTool && ir.IsToolAwaitingApproval(tool.Status):
			key = b.ID + "/" + tool.Status.String()
		case b.Status == ir.StatusStreaming:
			continue
		}
		if r.printed[key] {
			continue
		}
		r.printed[key] = true
		fmt.Fprintln(r.out, r.renderer.RenderBlock(b))
	}
}

func (r *replayer) answerApprovals() {
	if r.decision == "" {
		return
	}
	for _, b := range r.asm.Conversation().Blocks() {
		tool, ok := b.Tool()
		if !ok || !ir.IsToolAwaitingApproval(tool.Status) {
			continue
		}
		// Print the request before answering it.
		r.flush()
		reason := "replay --" + r.decision
		if err := r.asm.Respond(b.ID, r.decision == "approve", reason); err != nil {
			log.Warn("cannot answer approval for %s: %v", b.ID, err)
		}
	}
}
