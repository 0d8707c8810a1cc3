// Package imagegen builds retrieval URLs for the pollinations.ai image service.
// No request is sent here; the front-end fetches the URL as an image source.
package imagegen

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
)

const (
	BaseURL = "https://image.pollinations.ai/prompt/"

	Width  = 1024
	Height = 1024

	// MaxSeed bounds the random seed; seeds are drawn from [0, MaxSeed).
	MaxSeed = 10000

	promptTemplate = "professional photography of %s, 8k resolution, cinematic lighting, highly detailed, photorealistic"
)

// Builder builds image URLs. The zero value is not usable; use New.
type Builder struct {
	seed func() int
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeedFunc overrides the seed source. It is meant for tests.
func WithSeedFunc(fn func() int) Option {
	return func(b *Builder) {
		b.seed = fn
	}
}

// New creates a Builder drawing a fresh random seed for every URL.
func New(opts ...Option) *Builder {
	b := &Builder{
		seed: func() int { return rand.IntN(MaxSeed) },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GenerateImage returns the retrieval URL for prompt. It never fails.
func (b *Builder) GenerateImage(prompt string) string {
	return URLFor(prompt, b.seed())
}

// URLFor returns the retrieval URL for prompt with a fixed seed.
func URLFor(prompt string, seed int) string {
	encoded := escapeComponent(fmt.Sprintf(promptTemplate, prompt))
	return fmt.Sprintf("%s%s?width=%d&height=%d&nologo=true&seed=%d", BaseURL, encoded, Width, Height, seed)
}

var defaultBuilder = New()

// GenerateImage builds a URL using the package default Builder.
func GenerateImage(prompt string) string {
	return defaultBuilder.GenerateImage(prompt)
}

// componentUnescaper restores the marks that browsers leave alone in URI
// components but QueryEscape encodes.
var componentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent encodes s so that only letters, digits and -_.!~*'()
// stay literal, matching a browser's encodeURIComponent.
func escapeComponent(s string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return componentUnescaper.Replace(escaped)
}
