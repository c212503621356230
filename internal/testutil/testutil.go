// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SolidImage returns a w x h image with every pixel set to (r, g, b).
func SolidImage(w, h int, r, g, b byte) *bot.Image {
	px := make([]byte, w*h*3)
	for i := 0; i < len(px); i += 3 {
		px[i], px[i+1], px[i+2] = r, g, b
	}
	return &bot.Image{Width: w, Height: h, Pixels: px}
}

// Frame wraps an image in an enriched frame for a fixed test client.
func Frame(client uuid.UUID, img *bot.Image) *bot.EnrichedFrame {
	return bot.NewEnrichedFrame(client, 1, img)
}

// DarkFrame is a near-black capture; the analyzer reads it as an intro or
// load transition screen.
func DarkFrame(client uuid.UUID) *bot.EnrichedFrame {
	return Frame(client, SolidImage(32, 48, 8, 8, 8))
}

// BrightFrame is a mid-brightness flat capture; the analyzer reads it as
// overworld.
func BrightFrame(client uuid.UUID) *bot.EnrichedFrame {
	return Frame(client, SolidImage(32, 48, 0xd0, 0xd0, 0xd0))
}
