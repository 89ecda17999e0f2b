package genai

import (
	"context"
	"strings"

	"github.com/ivlev/doctimeline/internal/config"
	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
	"github.com/pkg/errors"
)

// ErrNoAPIKey is returned when no OpenAI-compatible key is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY (or GENAI_API_KEY) is not set")

// OpenAIText is a TextGenerator backed by an OpenAI-compatible chat
// completions endpoint.
type OpenAIText struct {
	client      openai.Client
	model       string
	temperature float64
	system      string
}

// NewOpenAIText builds the client from cfg. Extra request options are applied
// after the configured ones.
func NewOpenAIText(cfg config.OpenAIConfig, opts ...oaioption.RequestOption) (*OpenAIText, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	clientOpts := []oaioption.RequestOption{
		oaioption.WithAPIKey(cfg.APIKey),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientOpts = append(clientOpts, oaioption.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIText{
		client:      openai.NewClient(clientOpts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// WithSystem sets a system message sent ahead of every prompt.
func (o *OpenAIText) WithSystem(msg string) *OpenAIText {
	o.system = msg
	return o
}

func (o *OpenAIText) Generate(ctx context.Context, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if o.system != "" {
		messages = append(messages, openai.SystemMessage(o.system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       o.model,
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
