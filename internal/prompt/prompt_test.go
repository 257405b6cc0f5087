package prompt

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func TestRandomIsDeterministicForSeed(t *testing.T) {
	a := Random(rand.New(rand.NewPCG(1, 2)), "")
	b := Random(rand.New(rand.NewPCG(1, 2)), "")
	if a != b {
		t.Fatalf("same seed produced %+v and %+v", a, b)
	}
	if a.Artist != DefaultArtist {
		t.Fatalf("artist = %q", a.Artist)
	}
	if !slices.Contains(artMediums, a.Medium) || !slices.Contains(devices, a.Device) {
		t.Fatalf("style picked values outside the lists: %+v", a)
	}
}

func TestTemplate(t *testing.T) {
	s := Style{Artist: "Hokusai", Medium: "clay", Shot: "POV", Look: "polaroid", Lighting: "soft", Lens: "Macro", Device: "CCTV"}
	tpl := s.Template()
	if tpl.Prefix != "A clay in the style of Hokusai" {
		t.Fatalf("prefix = %q", tpl.Prefix)
	}
	if tpl.Suffix != "with a POV polaroid soft Macro CCTV photography style" {
		t.Fatalf("suffix = %q", tpl.Suffix)
	}
	s.Trending = true
	if !strings.HasSuffix(s.Suffix(), ", "+Trends) {
		t.Fatalf("trending suffix = %q", s.Suffix())
	}
}
