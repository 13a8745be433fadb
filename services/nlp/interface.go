package nlp

import (
	"context"

	"roomwise/models"
)

// Extraction is the full-state result of one intent-extraction call. Slots
// are raw extractor output; the dialogue layer sanitizes before trusting.
type Extraction struct {
	Intent models.Intent
	Slots  map[string]interface{}
}

// Client is the narrow contract over the external language services.
type Client interface {
	// ParseIntent classifies the message against the whole transcript.
	// The extractor re-derives all known slots each turn (full-state
	// contract, not a delta). Callers must not retry on failure.
	ParseIntent(ctx context.Context, message string, transcript []models.DialogueTurn) (*Extraction, error)
	// GenerateStream phrases the situation as natural language, calling
	// onDelta per text fragment, and returns the concatenated final text
	// for transcript persistence.
	GenerateStream(ctx context.Context, situation string, onDelta func(string) error) (string, error)
}
