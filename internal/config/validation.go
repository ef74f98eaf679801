package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "aitranscribe/internal/app/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on the whole configuration.
func (c *Config) Validate() error {
	return validateSection(c, "")
}

// ValidateClient checks only the settings the upload command uses.
func (c *Config) ValidateClient() error {
	return validateSection(&c.Client, "client.")
}

// ValidateServer checks only the settings the backend uses.
func (c *Config) ValidateServer() error {
	return validateSection(&c.Server, "server.")
}

// validateSection runs the struct tags on s and reports fields as
// prefix + lower-cased path below the struct name.
func validateSection(s interface{}, prefix string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fieldError := range validationErrs {
		namespace := fieldError.Namespace()
		if i := strings.Index(namespace, "."); i >= 0 {
			namespace = namespace[i+1:]
		}
		field := prefix + strings.ToLower(namespace)

		switch fieldError.Tag() {
		case "required":
			msgs = append(msgs, apperrors.RequiredField(field).Error())
		case "url":
			msgs = append(msgs, apperrors.InvalidField(field, "must be an absolute URL").Error())
		case "numeric":
			msgs = append(msgs, apperrors.InvalidField(field, "must be a number").Error())
		case "oneof":
			msgs = append(msgs, apperrors.InvalidField(field, "must be one of "+fieldError.Param()).Error())
		default:
			msgs = append(msgs, apperrors.InvalidField(field, fmt.Sprintf("failed %s", fieldError.Tag())).Error())
		}
	}

	return apperrors.WithCause(apperrors.ErrInvalidConfig, errors.New(strings.Join(msgs, "; ")))
}

// ValidateAPIKey validates API key format
func ValidateAPIKey(apiKey string, keyType string) error {
	if apiKey == "" {
		return fmt.Errorf("%s API key is required", keyType)
	}

	switch keyType {
	case "OpenAI":
		if !strings.HasPrefix(apiKey, "sk-") {
			return fmt.Errorf("invalid OPENAI_API_KEY format: must start with 'sk-'")
		}
		if len(apiKey) < 20 {
			return fmt.Errorf("invalid OPENAI_API_KEY format: too short")
		}
	case "Gemini":
		if !strings.HasPrefix(apiKey, "AIza") {
			return fmt.Errorf("invalid GEMINI_API_KEY format: must start with 'AIza'")
		}
		if len(apiKey) < 30 {
			return fmt.Errorf("invalid GEMINI_API_KEY format: too short")
		}
	}

	return nil
}
