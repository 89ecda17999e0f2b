// Package genai wraps the hosted text and image models behind two small
// capabilities so that callers and tests never depend on a vendor SDK.
package genai

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

var (
	// ErrNoJSON is returned when a model reply holds no parseable JSON object.
	ErrNoJSON = errors.New("no JSON object in model response")
	// ErrNoImage is returned when an image model answers without image bytes.
	ErrNoImage = errors.New("model returned no image")
	// ErrEmptyResponse is returned when a text model answers with nothing.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator turns a prompt into encoded image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

var (
	trailingObjectRE = regexp.MustCompile(`(?s)\{.*\}\s*$`)
	fencedJSONRE     = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})```")
)

// ExtractJSON returns the JSON object held by raw. The whole reply is tried
// first, then the block running from the first brace to a closing brace at the
// end of the reply, then the last ```json fenced block.
func ExtractJSON(raw string) (json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw), nil
	}

	var candidate string
	if m := trailingObjectRE.FindString(raw); m != "" {
		candidate = m
	} else if blocks := fencedJSONRE.FindAllStringSubmatch(raw, -1); len(blocks) > 0 {
		candidate = blocks[len(blocks)-1][1]
	}
	if candidate == "" {
		return nil, ErrNoJSON
	}

	candidate = strings.TrimSpace(candidate)
	if !json.Valid([]byte(candidate)) {
		return nil, errors.Wrap(ErrNoJSON, "extracted block is not valid JSON")
	}
	return json.RawMessage(candidate), nil
}

// DecodeJSON extracts the JSON object of raw into v.
func DecodeJSON(raw string, v interface{}) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	return errors.WithStack(json.Unmarshal(data, v))
}
