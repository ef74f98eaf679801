package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apperrors "aitranscribe/internal/app/errors"
)

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	OpenAI string
	Gemini string
}

// envPaths are tried in order; the first one found is loaded.
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// LoadEnv loads environment variables from .env file if it exists.
// Variables already set in the process environment win.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}

	return "", nil
}

// GetAPIKeys retrieves and validates API keys from environment variables.
// Missing keys are fine; malformed ones are an error.
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{
		OpenAI: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
	}

	if apiKeys.OpenAI != "" {
		if err := ValidateAPIKey(apiKeys.OpenAI, "OpenAI"); err != nil {
			return nil, err
		}
	}

	if apiKeys.Gemini != "" {
		if err := ValidateAPIKey(apiKeys.Gemini, "Gemini"); err != nil {
			return nil, err
		}
	}

	return apiKeys, nil
}

// RequireTranscriptionKey fails fast when the backend has nothing to
// transcribe with.
func RequireTranscriptionKey(apiKeys *APIKeys) error {
	if apiKeys.OpenAI == "" {
		return apperrors.WithCause(apperrors.ErrMissingAPIKey,
			fmt.Errorf("the transcription backend requires OPENAI_API_KEY in environment or .env file"))
	}
	return nil
}
