package openai

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// NewClient builds an OpenAI client. An empty baseURL keeps the public API.
func NewClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}
