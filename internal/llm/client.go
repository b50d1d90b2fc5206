// Package llm implements the generation client: structured output from
// an OpenAI-compatible chat completions API under a JSON schema
// contract. A structured call either yields a value that validates
// against its schema or fails with a *GenerationError - never a
// partially conforming value.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client is the generation capability consumed by the pipeline.
type Client interface {
	// Generate sends a prompt with a response format and returns the raw
	// JSON of the validated response object.
	Generate(ctx context.Context, prompt string, format *ResponseFormat) (json.RawMessage, error)

	// Complete sends a prompt without a schema and returns free text.
	// The result is never validated.
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerationError reports that the client could not produce a
// schema-conforming value. Network failure, model refusal, and schema
// validation failure are indistinguishable through this boundary and
// surface as one kind.
type GenerationError struct {
	Step string // pipeline step that issued the call
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("generation failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generation wraps err as a *GenerationError for the given step.
// A nil err returns nil; an err that already is a *GenerationError is
// returned unchanged so step attribution is not overwritten.
func Generation(step string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Step: step, Err: err}
}
