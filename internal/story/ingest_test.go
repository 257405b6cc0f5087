package story

import (
	"testing"
)

func TestIngestHelloWorld(t *testing.T) {
	lines := Ingest("Hello.\n\nWorld.", DefaultIngestOptions())
	want := []Line{
		{Index: 0, Text: "Hello.", Source: "Hello."},
		{Index: 1, Text: "World.", Source: "World."},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
}

func TestIngestFiltersAndIndexes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts IngestOptions
		want []string
	}{
		{
			name: "crlf and trailing space",
			raw:  "One. \r\nTwo.\t\r\n",
			opts: DefaultIngestOptions(),
			want: []string{"One.", "Two."},
		},
		{
			name: "whitespace only lines",
			raw:  "  \n\t\nA\n \n",
			opts: DefaultIngestOptions(),
			want: []string{"A"},
		},
		{
			name: "banner dropped",
			raw:  "The AI response returned in 3.2s\nA dragon woke.\nThe AI response returned in 1s",
			opts: DefaultIngestOptions(),
			want: []string{"A dragon woke."},
		},
		{
			name: "custom prefixes",
			raw:  "# heading\nbody\n// note",
			opts: IngestOptions{IgnorePrefixes: []string{"#", "//"}},
			want: []string{"body"},
		},
		{
			name: "no prefixes keeps banner",
			raw:  "The AI response returned in 2s",
			opts: IngestOptions{},
			want: []string{"The AI response returned in 2s"},
		},
		{
			name: "empty input",
			raw:  "",
			opts: DefaultIngestOptions(),
			want: nil,
		},
		{
			name: "leading indentation kept",
			raw:  "  indented line",
			opts: DefaultIngestOptions(),
			want: []string{"  indented line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Ingest(tt.raw, tt.opts)
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %+v", len(lines), len(tt.want), lines)
			}
			for i, line := range lines {
				if line.Index != i {
					t.Errorf("line %d has index %d", i, line.Index)
				}
				if line.Text != tt.want[i] {
					t.Errorf("line %d text = %q, want %q", i, line.Text, tt.want[i])
				}
			}
		})
	}
}

func TestIngestNormalizesNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	lines := Ingest("Cafe\u0301 noir", DefaultIngestOptions())
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Text != "Caf\u00e9 noir" {
		t.Fatalf("text not NFC normalized: %q", lines[0].Text)
	}
}

func TestLineRefs(t *testing.T) {
	var line Line
	line.SetRef(KindImage, "/tmp/i.png")
	if line.Audio != "" || line.Video != "" {
		t.Fatalf("SetRef touched another stage: %+v", line)
	}
	if line.Ref(KindImage) != "/tmp/i.png" {
		t.Fatalf("Ref(image) = %q", line.Ref(KindImage))
	}
	line.SetRef(Kind("bogus"), "x")
	if line.Ref(Kind("bogus")) != "" {
		t.Fatal("unknown kind should have no ref")
	}
}

func TestRunValidateAndCompleted(t *testing.T) {
	run := NewRun("r1", "story.txt", "", Ingest("a\nb\nc", DefaultIngestOptions()), PromptTemplate{})
	if err := run.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	run.Lines[1].Audio = "x.mp3"
	if got := run.Completed(KindAudio); got != 1 {
		t.Fatalf("Completed(audio) = %d, want 1", got)
	}
	run.Lines[2].Index = 7
	if err := run.Validate(); err == nil {
		t.Fatal("expected error for non-dense index")
	}
}
