package artifacts

import (
	"path/filepath"
	"testing"

	"storyboard/internal/story"
)

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/data/sb/")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"audio", l.Path(story.KindAudio, "r1", 3), "/data/sb/audio/r1/audio_3.mp3"},
		{"image", l.Path(story.KindImage, "r1", 3), "/data/sb/images/r1_image_3.png"},
		{"video", l.Path(story.KindVideo, "r1", 12), "/data/sb/video/r1/12.mp4"},
		{"unknown", l.Path(story.Kind("text"), "r1", 0), ""},
		{"final", l.FinalVideo("r1"), "/data/sb/final_video/r1/final_video.mp4"},
		{"record", l.Record("r1"), "/data/sb/cache/r1.json"},
		{"lock", l.Lock("r1"), "/data/sb/cache/r1.lock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPathsAreRunScoped(t *testing.T) {
	l := NewLayout("/data")
	for _, kind := range story.MediaKinds {
		if l.Path(kind, "a", 0) == l.Path(kind, "b", 0) {
			t.Errorf("%s path collides across runs", kind)
		}
		if l.Path(kind, "a", 1) == l.Path(kind, "a", 2) {
			t.Errorf("%s path collides across indices", kind)
		}
	}
}

func TestIndexFromName(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"0.mp4", 0, true},
		{"10.mp4", 10, true},
		{"/x/y/clip_7.mp4", 7, true},
		{"final.mp4", 0, false},
	}
	for _, tt := range tests {
		got, ok := IndexFromName(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("IndexFromName(%q) = %d,%v want %d,%v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
