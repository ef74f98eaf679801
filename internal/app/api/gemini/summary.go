package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// summaryPrompt asks for a plaintext digest of a conversation transcript.
const summaryPrompt = "Summarize the following transcription of a conversation, keeping all possibly important information, " +
	"and disregarding all other conversational banter or 'fluff' information. Consider when summarizing that some " +
	"speakers noted in the transcript may actually be the same person, but was misheard by the transcription algorithm used. " +
	"In your responses, do not use markdown; write the summary in plaintext (but please use basic formatting and * for " +
	"bullet points). The transcription is as follows:\n%s\n"

// SummaryPrompt renders the summary request for transcript.
func SummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPrompt, transcript)
}

// Summarizer condenses transcripts with a Gemini model.
type Summarizer struct {
	client *genai.Client
	model  string
}

// Option tweaks the underlying genai client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *genai.ClientConfig) {
		c.HTTPOptions.BaseURL = baseURL
	}
}

// NewSummarizer creates a Summarizer for the Gemini API.
func NewSummarizer(ctx context.Context, apiKey, model string, opts ...Option) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini summarizer requires an API key")
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(config)
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Summarizer{client: client, model: model}, nil
}

// Summarize returns the model's summary of transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("empty transcript")
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(SummaryPrompt(transcript)), nil)
	if err != nil {
		return "", fmt.Errorf("generateContent failed: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
