package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

const maxEventLine = 1024 * 1024

var doneMarker = []byte("[DONE]")

// DecodeEvents reads stream events from r. Both plain JSON lines and SSE
// framing are accepted: a "data:" prefix is stripped, other SSE fields and
// comments are skipped, and a [DONE] payload ends the stream. A line that is
// not a valid event yields an error and decoding continues.
func DecodeEvents(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			payload, ok := eventPayload(scanner.Bytes())
			if !ok {
				continue
			}
			if bytes.Equal(payload, doneMarker) {
				return
			}
			var e Event
			if err := json.Unmarshal(payload, &e); err != nil {
				if !yield(Event{}, fmt.Errorf("wire: line %d: %w", lineNo, err)) {
					return
				}
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Event{}, fmt.Errorf("wire: read events: %w", err))
		}
	}
}

func eventPayload(line []byte) ([]byte, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == ':' {
		return nil, false
	}
	if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		rest = bytes.TrimSpace(rest)
		return rest, len(rest) > 0
	}
	for _, field := range []string{"event:", "id:", "retry:"} {
		if bytes.HasPrefix(line, []byte(field)) {
			return nil, false
		}
	}
	return line, true
}
