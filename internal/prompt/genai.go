package prompt

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// RecentShown is how many recent prompts the generator is asked to avoid.
const RecentShown = 15

const systemInstruction = `You are the creative director for Daily Bright, a gamified gratitude journal.
Write ONE daily prompt that makes people excited to share something they are grateful for.

Requirements:
- 8 to 25 words.
- At most one emoji.
- Feel like a small game quest or creative writing challenge.
- Avoid generic phrasing such as "What are you grateful for today?" or "What made you smile?".
- Never repeat or closely paraphrase any prompt the user lists as recently used.

Vary the format between days. Options include word limits ("In exactly 5 words..."),
metaphors ("If your day was a song..."), ratings ("Rate your day's plot twists from 1-10"),
time travel ("What would you tell yesterday's you?"), superpowers, game mechanics
("What achievement did you unlock?"), sensory details and storytelling.

Return only the prompt text. No quotes, explanations or formatting.`

// GenAIGenerator produces prompts with a Gemini model.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a generator for model using apiKey.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate implements TextGenerator.
func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(UserMessage(req)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.95),
			MaxOutputTokens:   100,
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// UserMessage renders the per-day request: the date, its weekday and the
// most recent prompts to steer away from.
func UserMessage(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a gratitude quest for %s, %s.\n",
		req.Date.Weekday(), req.Date.Format("January 2, 2006"))
	b.WriteString("Adapt the energy to the day of the week and the season.\n")

	recent := req.Recent
	if len(recent) > RecentShown {
		recent = recent[:RecentShown]
	}
	if len(recent) > 0 {
		b.WriteString("\nRecently used prompts (create something completely different):\n")
		for _, text := range recent {
			fmt.Fprintf(&b, "- %q\n", strings.ToLower(strings.TrimSpace(text)))
		}
	}
	return b.String()
}
