// Package prompt picks a random visual style for a run's image prompts.
package prompt

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"storyboard/internal/story"
)

// DefaultArtist is used when the caller does not name one.
const DefaultArtist = "Van Gogh"

// Trends is appended to the suffix when Style.Trending is set.
const Trends = "trending on artstation and unreal engine"

var (
	artMediums = []string{
		"chalk", "graffiti", "water colors", "oil paints", "cinematic", "4k",
		"hyper realistic", "12k", "fabric", "pencil drawing", "wood", "clay",
	}
	shotTypes = []string{"close-up", "extreme close-up", "POV", "medium close-up", "medium shot", "long shot"}
	styles    = []string{"polaroid", "Monochrome", "Long Exposure", "Color Splash", "Long Shot"}
	lighting  = []string{"soft", "ambient", "Ring", "Sun", "Cinematic"}
	lenses    = []string{"Wide-Angle", "Telephoto", "24mm", "EF 70mm", "Bokeh", "Macro"}
	devices   = []string{"iPhone X", "CCTV", "Nikon Z FX", "Canon", "Gopro"}
)

// Style is one resolved random pick.
type Style struct {
	Artist   string
	Medium   string
	Shot     string
	Look     string
	Lighting string
	Lens     string
	Device   string
	Trending bool
}

// Random picks a style. An empty artist falls back to DefaultArtist.
func Random(rng *rand.Rand, artist string) Style {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		artist = DefaultArtist
	}
	return Style{
		Artist:   artist,
		Medium:   pick(rng, artMediums),
		Shot:     pick(rng, shotTypes),
		Look:     pick(rng, styles),
		Lighting: pick(rng, lighting),
		Lens:     pick(rng, lenses),
		Device:   pick(rng, devices),
	}
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}

// Prefix renders "A {medium} in the style of {artist}".
func (s Style) Prefix() string {
	return fmt.Sprintf("A %s in the style of %s", s.Medium, s.Artist)
}

// Suffix renders the photography description.
func (s Style) Suffix() string {
	suffix := fmt.Sprintf("with a %s %s %s %s %s photography style", s.Shot, s.Look, s.Lighting, s.Lens, s.Device)
	if s.Trending {
		suffix += ", " + Trends
	}
	return suffix
}

// Template converts the style into the run's prompt template.
func (s Style) Template() story.PromptTemplate {
	return story.PromptTemplate{Prefix: s.Prefix(), Suffix: s.Suffix()}
}
