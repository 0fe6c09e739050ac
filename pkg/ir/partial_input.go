package ir

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// PartialInput accumulates a tool's JSON input as it streams in and keeps
// the most recent value that could be parsed.
//
// An incomplete payload is expected while streaming, so a parse failure is
// never an error: Append reports ok=false and Value keeps returning the
// previous successful parse.
type PartialInput struct {
	buf    strings.Builder
	value  any
	parsed bool

	repair func(string) (string, error)
}

// NewPartialInput returns an empty accumulator.
func NewPartialInput() *PartialInput {
	return &PartialInput{repair: jsonrepair.JSONRepair}
}

// Append adds delta to the buffer and tries to parse the whole buffer.
func (p *PartialInput) Append(delta string) (value any, ok bool) {
	p.buf.WriteString(delta)
	v, err := p.parse(p.buf.String())
	if err != nil {
		return p.value, false
	}
	p.value, p.parsed = v, true
	return v, true
}

// Value returns the last successfully parsed value.
func (p *PartialInput) Value() (any, bool) {
	return p.value, p.parsed
}

// Raw returns the accumulated text.
func (p *PartialInput) Raw() string {
	return p.buf.String()
}

func (p *PartialInput) parse(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyInput
	}
	var v any
	err := json.Unmarshal([]byte(text), &v)
	if err == nil {
		return v, nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return nil, err
	}
	repair := p.repair
	if repair == nil {
		repair = jsonrepair.JSONRepair
	}
	fixed, err := repair(text)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fixed), &v); err != nil {
		return nil, err
	}
	return v, nil
}

var errEmptyInput = errors.New("ir: empty tool input")

// ParseToolInput decodes a complete tool input. Partial JSON is repaired
// when possible; input that still cannot be decoded is returned as the raw
// string.
func ParseToolInput(text string) any {
	p := NewPartialInput()
	if v, ok := p.Append(text); ok {
		return v
	}
	return text
}
