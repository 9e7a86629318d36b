// Package tokenizer estimates token counts for the assembled payload.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	// DefaultModel is used when no tokenizer model is configured.
	DefaultModel = "gpt-4o"

	fallbackEncodingName       = "cl100k_base"
	errorInitializeFormat      = "initialize tokenizer for model %q: %w"
	errorCountFormat           = "count tokens: %w"
	errorNilEncodingDiagnostic = "tokenizer returned no encoding"
)

// encodingCounter implements Counter on top of a tiktoken encoding.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, fmt.Errorf(errorCountFormat, fmt.Errorf(errorNilEncodingDiagnostic))
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// NewCounter returns a Counter for the requested model name. Unknown models
// fall back to the cl100k_base encoding so counting still succeeds.
func NewCounter(model string) (Counter, error) {
	modelName := strings.ToLower(strings.TrimSpace(model))
	if modelName == "" {
		modelName = DefaultModel
	}

	encoding, encodingError := tiktoken.EncodingForModel(modelName)
	if encodingError == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: modelName}, nil
	}

	fallbackEncoding, fallbackError := tiktoken.GetEncoding(fallbackEncodingName)
	if fallbackError != nil {
		return nil, fmt.Errorf(errorInitializeFormat, model, fallbackError)
	}
	return encodingCounter{encoding: fallbackEncoding, name: fallbackEncodingName}, nil
}
