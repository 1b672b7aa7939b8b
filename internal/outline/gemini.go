package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

type geminiProvider struct {
	model       string
	timeout     time.Duration
	temperature float32
	client      *genai.Client
}

func newGeminiProvider(ctx context.Context, settings Settings, defaults Defaults) (*geminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: defaults.httpClient(),
	}
	if settings.Endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.Endpoint}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	return &geminiProvider{
		model:       firstNonEmpty(settings.Model, defaults.GeminiModel),
		timeout:     defaults.Timeout,
		temperature: float32(defaults.Temperature),
		client:      client,
	}, nil
}

func (g *geminiProvider) Name() string {
	return KindGemini.String()
}

func (g *geminiProvider) GenerateOutline(ctx context.Context, markedText string) (Outline, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(markedText),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    geminiSchema(),
		},
	)
	if err != nil {
		return Outline{}, generationError(g.Name(), err)
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return Outline{}, generationError(g.Name(), errors.New("gemini returned no text"))
	}
	outline, err := decode(text)
	if err != nil {
		return Outline{}, generationError(g.Name(), err)
	}
	return outline, nil
}
