// Package content writes the body of the daily content notification.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

const maxTeaserLen = 160

const systemPrompt = `You write the push notification for a tarot and horoscope app.
Today is %s.

Pick one major arcana card as the card of the day and write a single
sentence teaser (under 120 characters) that makes the reader want to open
the app. No emoji, no hashtags, no quotes.`

var teaserSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"card": {
			"type": "string",
			"description": "Name of the major arcana card of the day"
		},
		"teaser": {
			"type": "string",
			"description": "One sentence notification body"
		}
	},
	"required": ["card", "teaser"],
	"additionalProperties": false
}`)

type dailyTeaser struct {
	Card   string `json:"card"`
	Teaser string `json:"teaser"`
}

// Teaser asks a chat model for the day's notification body and caches the
// answer for the rest of that calendar day.
type Teaser struct {
	client *openai.Client
	model  string
	loc    *time.Location

	mu     sync.Mutex
	day    string
	cached string
}

func New(apiKey, baseURL, model string, loc *time.Location) *Teaser {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	if loc == nil {
		loc = time.Local
	}

	return &Teaser{
		client: openai.NewClientWithConfig(config),
		model:  model,
		loc:    loc,
	}
}

func (t *Teaser) DailyBody(ctx context.Context, now time.Time) (string, error) {
	day := now.In(t.loc).Format("2006-01-02")

	t.mu.Lock()
	if t.day == day && t.cached != "" {
		body := t.cached
		t.mu.Unlock()
		return body, nil
	}
	t.mu.Unlock()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPrompt, now.In(t.loc).Format("Monday, 2 January 2006")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Write today's teaser.",
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "daily_teaser",
				Schema: teaserSchema,
				Strict: true,
			},
		},
		Temperature: 0.9,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call AI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from AI")
	}

	var out dailyTeaser
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}

	body := compose(out)
	if body == "" {
		return "", errors.New("empty teaser from AI")
	}

	t.mu.Lock()
	t.day, t.cached = day, body
	t.mu.Unlock()
	return body, nil
}

func compose(d dailyTeaser) string {
	teaser := strings.TrimSpace(d.Teaser)
	if teaser == "" {
		return ""
	}
	body := teaser
	if card := strings.TrimSpace(d.Card); card != "" {
		body = card + ": " + teaser
	}
	if r := []rune(body); len(r) > maxTeaserLen {
		body = string(r[:maxTeaserLen-1]) + "…"
	}
	return body
}
