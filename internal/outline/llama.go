package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxCompletionBytes = 4 << 20

// llamaProvider posts a free-text prompt to a llama.cpp style completion
// endpoint and parses the JSON out of the generated text.
type llamaProvider struct {
	endpoint    string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	client      *http.Client
}

func newLlamaProvider(settings Settings, defaults Defaults) (*llamaProvider, error) {
	endpoint := firstNonEmpty(settings.Endpoint, defaults.LlamaEndpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &ConfigError{Field: "endpoint", Message: "endpoint must be an http(s) URL"}
	}
	return &llamaProvider{
		endpoint:    endpoint,
		model:       settings.Model,
		apiKey:      settings.APIKey,
		maxTokens:   defaults.MaxTokens,
		temperature: defaults.Temperature,
		timeout:     defaults.Timeout,
		client:      defaults.httpClient(),
	}, nil
}

func (l *llamaProvider) Name() string {
	return KindLlama.String()
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
	Model       string  `json:"model,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Content string `json:"content"`
}

func (l *llamaProvider) GenerateOutline(ctx context.Context, markedText string) (Outline, error) {
	text, err := l.complete(ctx, completionPrompt(markedText))
	if err != nil {
		return Outline{}, generationError(l.Name(), err)
	}

	raw := extractJSONObject(text)
	if err := validateJSON(raw); err != nil {
		return Outline{}, generationError(l.Name(), err)
	}
	outline, err := decode(raw)
	if err != nil {
		return Outline{}, generationError(l.Name(), err)
	}
	return outline, nil
}

func (l *llamaProvider) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		MaxTokens:   l.maxTokens,
		NPredict:    l.maxTokens,
		Temperature: l.temperature,
		Model:       l.model,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	response, err := l.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		message, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return "", &upstreamStatusError{statusCode: response.StatusCode, message: strings.TrimSpace(string(message))}
	}

	var parsed completionResponse
	if err := json.NewDecoder(io.LimitReader(response.Body, maxCompletionBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: completion body: %v", errInvalidResponse, err)
	}
	switch {
	case len(parsed.Choices) > 0 && strings.TrimSpace(parsed.Choices[0].Text) != "":
		return parsed.Choices[0].Text, nil
	case strings.TrimSpace(parsed.Content) != "":
		return parsed.Content, nil
	}
	return "", fmt.Errorf("%w: completion has no text", errInvalidResponse)
}
