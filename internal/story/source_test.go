package story

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyboard/internal/services"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "story.txt")
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(good, []byte("Once upon a time.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blank, []byte(" \n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"ok", good, nil},
		{"missing", filepath.Join(dir, "missing.txt"), services.ErrNotFound},
		{"blank", blank, services.ErrConfiguration},
		{"directory", dir, services.ErrConfiguration},
		{"empty path", "", services.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ReadSource(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.Contains(text, "Once upon") {
					t.Fatalf("unexpected text %q", text)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCSVToText(t *testing.T) {
	in := strings.NewReader("book,chapter,verse,text\n" +
		"Ezekiel,1,1,\"Now it came to pass, in the thirtieth year\"\n" +
		"Ezekiel,1,2,\n" +
		"short\n")
	var out strings.Builder
	n, err := CSVToText(in, &out)
	if err != nil {
		t.Fatalf("CSVToText: %v", err)
	}
	if n != 3 {
		t.Fatalf("wrote %d lines, want 3", n)
	}
	want := "text\nNow it came to pass, in the thirtieth year\nshort\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}
