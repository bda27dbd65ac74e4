// Package imagegen builds image URLs against the external generation
// endpoint.
//
// The endpoint renders an image from a free-text prompt passed in the URL
// path, with width/height/seed/model query parameters. This package's
// contract ends at URL construction: it performs no I/O and never contacts
// the endpoint. Fetching and rendering the image is the browser's job — the
// backend just hands the client a URL.
package imagegen

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
)

// styleSuffix is appended to every prompt to steer the model toward a
// consistent look across generations.
const styleSuffix = ", pokemon style, digital illustration, high detail, clean background"

// seedRange bounds the random seed attached to every URL. The seed exists
// for generation variance and cache-busting: two requests with an identical
// prompt must still produce distinct URLs.
const seedRange = 1_000_000

// Config holds the parameters of the external generation endpoint.
type Config struct {
	// Endpoint is the base URL the prompt is appended to.
	// Must not end with a slash; the prompt becomes the next path segment.
	Endpoint string
	// Width and Height of the generated image in pixels.
	Width  int
	Height int
	// Model is the generation model tag passed to the endpoint.
	Model string
}

// DefaultConfig targets pollinations.ai with the fixed output-size and style
// parameter set the frontend expects.
func DefaultConfig() Config {
	return Config{
		Endpoint: "https://image.pollinations.ai/prompt",
		Width:    512,
		Height:   512,
		Model:    "flux",
	}
}

// Builder constructs image URLs for creature prompts.
//
// The seed source is a plain func so tests can pin it. The default draws
// from math/rand — the seed is a cache-buster, not a secret, so there is no
// reason to pay for crypto/rand here.
type Builder struct {
	cfg  Config
	seed func() int
}

// New creates a Builder with a randomized seed source.
func New(cfg Config) *Builder {
	return &Builder{
		cfg:  cfg,
		seed: func() int { return rand.IntN(seedRange) },
	}
}

// ImageURL composes the prompt, animals, and abilities into one descriptive
// prompt string and encodes it into a generation URL.
//
// Composition rules (the frontend copy depends on this exact phrasing):
//
//	"<prompt>"
//	", combined with <animal> and <animal>"        (if any animals)
//	", with abilities: <ability>, <ability>"       (if any abilities)
//	styleSuffix
//
// Example output:
//
//	https://image.pollinations.ai/prompt/fiery%20fox%2C%20pokemon%20style...?height=512&model=flux&nologo=true&seed=123456&width=512
func (b *Builder) ImageURL(prompt string, animals, abilities []string) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	if len(animals) > 0 {
		sb.WriteString(", combined with ")
		sb.WriteString(strings.Join(animals, " and "))
	}
	if len(abilities) > 0 {
		sb.WriteString(", with abilities: ")
		sb.WriteString(strings.Join(abilities, ", "))
	}
	sb.WriteString(styleSuffix)

	q := url.Values{}
	q.Set("width", fmt.Sprint(b.cfg.Width))
	q.Set("height", fmt.Sprint(b.cfg.Height))
	q.Set("nologo", "true")
	q.Set("seed", fmt.Sprint(b.seed()))
	q.Set("model", b.cfg.Model)

	return b.cfg.Endpoint + "/" + url.PathEscape(sb.String()) + "?" + q.Encode()
}
