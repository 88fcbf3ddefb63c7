package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Extraction is the structured output of transcript analysis.
type Extraction struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Company       string `json:"company"`
	InterestScore int    `json:"interest_score"`
	Summary       string `json:"summary"`
	Sentiment     string `json:"sentiment"`
}

// Extractor turns a raw transcript into an Extraction.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Extraction, error)
}

// ErrBadExtraction means the model's response did not match the expected
// JSON schema. Callers should treat it as a permanent failure for this
// transcript, not retry it.
var ErrBadExtraction = errors.New("leads: model response did not match schema")

const extractionPrompt = `You analyze transcripts of inbound sales calls.
Extract the caller's contact details and buying intent.
Respond with a single JSON object and nothing else, using exactly these keys:
name, email, phone, company, interest_score (integer 0-100),
summary (one sentence), sentiment (one of: positive, neutral, negative).
Use an empty string for anything the transcript does not contain.`

// OpenAIExtractor runs the extraction prompt against a chat completion model.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIExtractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, transcript string) (Extraction, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionPrompt),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("leads: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Extraction{}, ErrBadExtraction
	}
	return DecodeExtraction(resp.Choices[0].Message.Content)
}

// DecodeExtraction validates the model output against the expected schema.
// It fails fast on mismatches instead of silently defaulting fields.
func DecodeExtraction(raw string) (Extraction, error) {
	raw = strings.TrimSpace(raw)
	// Models occasionally wrap JSON in a markdown fence despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var out Extraction
	if err := dec.Decode(&out); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrBadExtraction, err)
	}

	if out.InterestScore < 0 {
		out.InterestScore = 0
	}
	if out.InterestScore > 100 {
		out.InterestScore = 100
	}
	switch out.Sentiment {
	case "", "positive", "neutral", "negative":
	default:
		return Extraction{}, fmt.Errorf("%w: unknown sentiment %q", ErrBadExtraction, out.Sentiment)
	}
	return out, nil
}
