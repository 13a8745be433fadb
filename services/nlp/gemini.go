package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"roomwise/models"
	"roomwise/utils"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements Client against the Gemini API. One model instance
// runs JSON-mode extraction, another streams natural-language generation.
type GeminiClient struct {
	extractor *genai.GenerativeModel
	generator *genai.GenerativeModel
}

// NewGeminiClient creates a Gemini-backed NLP client.
func NewGeminiClient(apiKey string) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}

	extractor := client.GenerativeModel("models/gemini-1.5-pro")
	extractor.ResponseMIMEType = "application/json"
	generator := client.GenerativeModel("models/gemini-1.5-pro")
	return &GeminiClient{extractor: extractor, generator: generator}
}

// extractionEnvelope mirrors the JSON shape the extraction prompt demands.
type extractionEnvelope struct {
	Intent string                 `json:"intent"`
	Slots  map[string]interface{} `json:"slots"`
}

func (g *GeminiClient) ParseIntent(ctx context.Context, message string, transcript []models.DialogueTurn) (*Extraction, error) {
	prompt := buildExtractionPrompt(message, transcript, time.Now())

	resp, err := g.extractor.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, utils.NewExternalError("intent extraction failed: %v", err)
	}
	raw := collectText(resp)
	if raw == "" {
		return nil, utils.NewExternalError("intent extraction returned no content")
	}

	var envelope extractionEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, utils.NewExternalError("intent extraction returned malformed JSON: %v", err)
	}
	return &Extraction{
		Intent: normalizeIntent(envelope.Intent),
		Slots:  envelope.Slots,
	}, nil
}

func (g *GeminiClient) GenerateStream(ctx context.Context, situation string, onDelta func(string) error) (string, error) {
	prompt := buildGenerationPrompt(situation)

	var sb strings.Builder
	iter := g.generator.GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return sb.String(), utils.NewExternalError("response generation failed: %v", err)
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				textPart, ok := part.(genai.Text)
				if !ok {
					continue
				}
				fragment := string(textPart)
				sb.WriteString(fragment)
				if err := onDelta(fragment); err != nil {
					return sb.String(), err
				}
			}
		}
	}
	return sb.String(), nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if textPart, ok := part.(genai.Text); ok {
				sb.WriteString(string(textPart))
			}
		}
	}
	return sb.String()
}

// normalizeIntent maps an extractor label onto the typed intent set; labels
// outside the set read as UNKNOWN rather than flowing through as strings.
func normalizeIntent(label string) models.Intent {
	switch models.Intent(strings.ToUpper(strings.TrimSpace(label))) {
	case models.IntentBook:
		return models.IntentBook
	case models.IntentModify:
		return models.IntentModify
	case models.IntentCancel:
		return models.IntentCancel
	case models.IntentQueryAvailability:
		return models.IntentQueryAvailability
	case models.IntentRoomInfo:
		return models.IntentRoomInfo
	case models.IntentGreeting:
		return models.IntentGreeting
	case models.IntentExternalError:
		return models.IntentExternalError
	}
	return models.IntentUnknown
}
