package ir

// AggregateStatus derives a conversation status from its blocks.
//
// Streaming wins outright: the first streaming block ends the scan. An error
// block makes the result error but the scan keeps going, since a later
// streaming block still takes priority. With neither present, including for
// an empty sequence, the result is completed.
func AggregateStatus(blocks []Block) ContentStatus {
	status := StatusCompleted
	for _, b := range blocks {
		switch b.Status {
		case StatusStreaming:
			return StatusStreaming
		case StatusError:
			status = StatusError
		}
	}
	return status
}
