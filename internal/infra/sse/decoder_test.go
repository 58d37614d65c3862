package sse

import (
	"reflect"
	"testing"
)

func feedAll(d *Decoder, chunks ...string) []Record {
	var out []Record
	for _, c := range chunks {
		out = append(out, d.Feed(c)...)
	}
	out = append(out, d.Flush()...)
	return out
}

func TestFeedBasic(t *testing.T) {
	d := &Decoder{}
	got := feedAll(d, "data: {\"type\":\"start\"}\n\ndata: {\"type\":\"complete\"}\n")
	want := []Record{
		{Payload: `{"type":"start"}`},
		{Payload: `{"type":"complete"}`},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// Splitting the byte stream at any position must yield the same record
// sequence as feeding it whole.
func TestChunkBoundaryInvariance(t *testing.T) {
	input := "data: {\"type\":\"start\",\"session_id\":\"abc\"}\n" +
		"\n" +
		": comment line\n" +
		"data: {\"type\":\"stream\",\"data\":\"Hello\"}\n" +
		"event: noise\n" +
		"data: [DONE]\n" +
		"data: {\"type\":\"complete\"}"

	want := feedAll(&Decoder{}, input)
	if len(want) != 4 {
		t.Fatalf("baseline decoded %d records, want 4", len(want))
	}

	for cut := 0; cut <= len(input); cut++ {
		got := feedAll(&Decoder{}, input[:cut], input[cut:])
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: got %v, want %v", cut, got, want)
		}
	}
}

func TestFlushWithoutTrailingNewline(t *testing.T) {
	d := &Decoder{}
	if got := d.Feed(`data: {"type":"complete"}`); len(got) != 0 {
		t.Fatalf("incomplete line emitted early: %v", got)
	}
	got := d.Flush()
	if len(got) != 1 || got[0].Payload != `{"type":"complete"}` {
		t.Fatalf("flush got %v", got)
	}
	if extra := d.Flush(); len(extra) != 0 {
		t.Fatalf("second flush emitted %v", extra)
	}
}

func TestDoneSentinel(t *testing.T) {
	d := &Decoder{}
	got := feedAll(d, "data: [DONE]\n")
	if len(got) != 1 || !got[0].Done || got[0].Payload != "" {
		t.Fatalf("got %v", got)
	}
}

func TestNonDataLinesDropped(t *testing.T) {
	d := &Decoder{}
	got := feedAll(d, "\n\nid: 7\nretry: 100\n   \ndatum: x\n")
	if len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
}
