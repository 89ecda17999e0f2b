package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/ivlev/doctimeline/internal/config"
	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// NewVertexService opens the regional Vertex AI endpoint with the service
// account named by cfg. Extra client options are applied last, which lets
// tests point the service at a local server.
func NewVertexService(ctx context.Context, cfg config.VertexConfig, opts ...option.ClientOption) (*aiplatform.Service, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("GCP_PROJECT_ID is not set")
	}

	clientOpts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("https://%s-aiplatform.googleapis.com/", cfg.Location)),
	}
	if cfg.ServiceAccountFile != "" {
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, errors.Wrapf(err, "read service account %s", cfg.ServiceAccountFile)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, errors.Wrap(err, "parse service account")
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := aiplatform.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "vertex ai client")
	}
	return svc, nil
}

func publisherModel(cfg config.VertexConfig, model string) string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", cfg.ProjectID, cfg.Location, model)
}

// GeminiText is a TextGenerator backed by Gemini on Vertex AI.
type GeminiText struct {
	svc         *aiplatform.Service
	model       string
	maxTokens   int64
	temperature float64
}

func NewGeminiText(svc *aiplatform.Service, cfg config.VertexConfig) *GeminiText {
	return &GeminiText{
		svc:         svc,
		model:       publisherModel(cfg, cfg.GeminiModel),
		maxTokens:   cfg.GeminiMaxTokens,
		temperature: cfg.GeminiTemperature,
	}
}

func (g *GeminiText) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, &aiplatform.GoogleCloudAiplatformV1GenerationConfig{
		MaxOutputTokens: g.maxTokens,
		Temperature:     g.temperature,
		ForceSendFields: []string{"Temperature"},
	})
}

// GenerateJSON asks for an application/json reply and decodes it into v.
func (g *GeminiText) GenerateJSON(ctx context.Context, prompt string, v interface{}) error {
	text, err := g.generate(ctx, prompt, &aiplatform.GoogleCloudAiplatformV1GenerationConfig{
		ResponseMimeType: "application/json",
	})
	if err != nil {
		return err
	}
	return DecodeJSON(text, v)
}

func (g *GeminiText) generate(ctx context.Context, prompt string, gc *aiplatform.GoogleCloudAiplatformV1GenerationConfig) (string, error) {
	req := &aiplatform.GoogleCloudAiplatformV1GenerateContentRequest{
		Contents: []*aiplatform.GoogleCloudAiplatformV1Content{{
			Role:  "user",
			Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: prompt}},
		}},
		GenerationConfig: gc,
	}
	resp, err := g.svc.Projects.Locations.Publishers.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Imagen is an ImageGenerator backed by the Imagen predict endpoint.
type Imagen struct {
	svc         *aiplatform.Service
	model       string
	aspectRatio string
}

func NewImagen(svc *aiplatform.Service, cfg config.VertexConfig) *Imagen {
	return &Imagen{
		svc:         svc,
		model:       publisherModel(cfg, cfg.ImagenModel),
		aspectRatio: cfg.AspectRatio,
	}
}

func (im *Imagen) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req := &aiplatform.GoogleCloudAiplatformV1PredictRequest{
		Instances: []interface{}{map[string]interface{}{"prompt": prompt}},
		Parameters: map[string]interface{}{
			"sampleCount": 1,
			"aspectRatio": im.aspectRatio,
		},
	}
	resp, err := im.svc.Projects.Locations.Publishers.Models.Predict(im.model, req).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "imagen predict")
	}
	if len(resp.Predictions) == 0 {
		return nil, ErrNoImage
	}

	pred, ok := resp.Predictions[0].(map[string]interface{})
	if !ok {
		return nil, ErrNoImage
	}
	encoded, _ := pred["bytesBase64Encoded"].(string)
	if encoded == "" {
		return nil, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "decode imagen payload")
	}
	return data, nil
}
