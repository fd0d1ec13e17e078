package completion

import "strings"

const (
	recordDelimiter = "\n\ndata:"
	fieldPrefix     = "data:"
	doneSentinel    = "[DONE]"
)

// splitRecords cuts a decoded chunk into candidate records. The optional
// space after "data:" is absorbed by trimming; blank candidates are dropped.
func splitRecords(chunk string) []string {
	pieces := strings.Split(chunk, recordDelimiter)
	records := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if record := normalizeRecord(piece); record != "" {
			records = append(records, record)
		}
	}
	return records
}

// normalizeRecord strips the field prefix and surrounding whitespace from
// raw record text.
func normalizeRecord(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, fieldPrefix)
	return strings.TrimSpace(raw)
}

// ProcessStreamChunk decodes one text chunk. carry is the unparsed text left
// by the previous call for the same stream; the returned carry must be
// passed to the next call. The carry holds raw text, so carry plus the next
// chunk always rebuilds the bytes as sent. Processing stops at the first
// [DONE], which is reported as the last event.
func ProcessStreamChunk(chunk string, carry string) ([]StreamEvent, string) {
	events, carry, _ := processPieces(strings.Split(chunk, recordDelimiter), carry)
	return events, carry
}

func processPieces(pieces []string, carry string) ([]StreamEvent, string, bool) {
	var events []StreamEvent

	for _, piece := range pieces {
		joined := carry + piece
		record := normalizeRecord(joined)

		switch {
		case record == "":
			// Whitespace between records is dropped; a bare field prefix
			// may still be the start of a record.
			if carry == "" {
				continue
			}
			carry = joined
			continue
		case record == doneSentinel:
			return append(events, DoneEvent{}), "", true
		}

		chunk, err := parseChunk(record)
		if err == nil {
			events = append(events, extractEvents(chunk)...)
			carry = ""
			continue
		}

		// A delimiter cut across two chunks only becomes visible once the
		// halves are joined again.
		if carry != "" && strings.Contains(joined, recordDelimiter) {
			more, rest, done := processPieces(strings.Split(joined, recordDelimiter), "")
			events = append(events, more...)
			if done {
				return events, "", true
			}
			carry = rest
			continue
		}

		carry = joined
	}

	return events, carry, false
}
