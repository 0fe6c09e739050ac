package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/killallgit/streamir/pkg/config"
	"github.com/killallgit/streamir/pkg/ir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// openInput opens the file named by the first argument, or stdin when there
// is none or it is "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// idGenerator builds the block id generator selected by the wire settings.
func idGenerator(cfg *config.Config) ir.IDGenerator {
	if cfg.Wire.IDStrategy == "uuid" {
		return ir.UUIDs{Prefix: cfg.Wire.IDPrefix}
	}
	return ir.NewCounterIDs(cfg.Wire.IDPrefix)
}

// writeOutput encodes v as indented JSON or as YAML.
func writeOutput(w io.Writer, v any, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		data = append(data, '\n')
	case "yaml":
		if data, err = jsonToYAML(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q: want json or yaml", format)
	}
	_, err = w.Write(data)
	return err
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key
// order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode json as yaml: %w", err)
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, child := range n.Content {
		blockStyle(child)
	}
}
