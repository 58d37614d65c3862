// File: internal/infra/sse/decoder.go
package sse

import "strings"

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Record is one decoded data-line payload. Done marks the [DONE] sentinel,
// which must not be forwarded to JSON parsing.
type Record struct {
	Payload string
	Done    bool
}

// Decoder reassembles newline-delimited `data: <json>` records from
// arbitrarily chunked reads. A logical line split across chunk boundaries
// is carried over until its newline arrives; blank lines (SSE frame
// separators) and lines without the data prefix are dropped.
type Decoder struct {
	carry string
}

// Feed appends one chunk and returns the records it completed.
func (d *Decoder) Feed(chunk string) []Record {
	lines := strings.Split(d.carry+chunk, "\n")
	d.carry = lines[len(lines)-1]
	return records(lines[:len(lines)-1])
}

// Flush drains whatever remains after the transport closed, handling a
// server that drops the connection without a trailing newline.
func (d *Decoder) Flush() []Record {
	rest := d.carry
	d.carry = ""
	if strings.TrimSpace(rest) == "" {
		return nil
	}
	return records(strings.Split(rest, "\n"))
}

func records(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := line[len(dataPrefix):]
		if payload == doneSentinel {
			out = append(out, Record{Done: true})
			continue
		}
		out = append(out, Record{Payload: payload})
	}
	return out
}
