package model

import "testing"

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *int
	}{
		{"float", float64(42), intp(42)},
		{"string", "17", intp(17)},
		{"string float", "17.9", intp(17)},
		{"garbage string", "abc", nil},
		{"nil", nil, nil},
		{"bool", true, nil},
		{"nan string", "NaN", nil},
		{"inf string", "Inf", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CoerceNumber(tc.in)
			switch {
			case got == nil && tc.want == nil:
			case got == nil || tc.want == nil:
				t.Fatalf("got %v, want %v", got, tc.want)
			case *got != *tc.want:
				t.Fatalf("got %d, want %d", *got, *tc.want)
			}
		})
	}
}

func TestParseMessageContentLegacy(t *testing.T) {
	got := ParseMessageContent(`AIMessageChunk(content='He said \'hi\'', id='run-1')`)
	if got != "He said 'hi'" {
		t.Fatalf("got %q", got)
	}
}

func TestParseMessageContentMap(t *testing.T) {
	got := ParseMessageContent(map[string]any{"content": "from map", "id": "x"})
	if got != "from map" {
		t.Fatalf("got %q", got)
	}
}

func TestParseMessageContentPlain(t *testing.T) {
	if got := ParseMessageContent("just text"); got != "just text" {
		t.Fatalf("got %q", got)
	}
	if got := ParseMessageContent(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractToolMessage(t *testing.T) {
	raw := `{'agent': {'messages': [ToolMessage(content='it\'s done\nsecond line', name='run')]}}`
	got, ok := ExtractToolMessage(raw)
	if !ok {
		t.Fatal("no match")
	}
	if got != "it's done\nsecond line" {
		t.Fatalf("got %q", got)
	}

	if _, ok := ExtractToolMessage("content='loose' but no marker"); ok {
		t.Fatal("matched without ToolMessage marker")
	}
}

func TestSafeRenderFallback(t *testing.T) {
	if got := SafeRender(make(chan int)); got != "[unserializable data]" {
		t.Fatalf("got %q", got)
	}
	if got := SafeRender("pass-through"); got != "pass-through" {
		t.Fatalf("got %q", got)
	}
	if got := SafeRender(nil); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := SafeRender(map[string]any{"a": 1}); got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}
