// Package llm adapts hosted text-generation APIs to a single Generator
// interface used by the summary and translation pipelines.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Request is one single-turn generation call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	// JSON asks the backend for a JSON object response where it supports it.
	JSON bool
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	// ErrEmptyResponse is returned when a backend answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrNoJSONObject is returned when output contains no JSON object.
	ErrNoJSONObject = errors.New("llm: response contains no JSON object")
)

// ExtractJSONObject returns the text from the first '{' to the last '}' of
// raw. Models often wrap their JSON in prose or code fences.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}

func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
