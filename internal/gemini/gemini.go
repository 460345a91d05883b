// Package gemini answers chat questions with a Gemini generative model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmptyAnswer is returned when the model produced no text
var ErrEmptyAnswer = errors.New("model returned an empty answer")

const promptTemplate = `Answer like you're a helpful assistant. User's question: "%s"`

// Client wraps a Gemini model
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewClient creates a client for the named model
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  client.GenerativeModel(modelName),
		name:   modelName,
	}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.name
}

// Answer asks the model a single question and returns its text
func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(question)))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

// BuildPrompt wraps the user's question in the assistant instruction
func BuildPrompt(question string) string {
	return fmt.Sprintf(promptTemplate, question)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
