package outline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// chatProvider calls an OpenAI-compatible chat completion endpoint with a
// strict JSON schema response format.
type chatProvider struct {
	name    string
	model   string
	timeout time.Duration
	client  openai.Client
}

func newOpenAIProvider(settings Settings, defaults Defaults) *chatProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(defaults.httpClient()),
		option.WithMaxRetries(0),
	}
	if settings.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(settings.Endpoint))
	}
	return &chatProvider{
		name:    KindOpenAI.String(),
		model:   firstNonEmpty(settings.Model, defaults.OpenAIModel),
		timeout: defaults.Timeout,
		client:  openai.NewClient(opts...),
	}
}

func newAzureProvider(settings Settings, defaults Defaults) *chatProvider {
	endpoint := strings.TrimRight(settings.Endpoint, "/")
	apiVersion := firstNonEmpty(settings.APIVersion, defaults.AzureAPIVersion)
	return &chatProvider{
		name:    KindAzure.String(),
		model:   firstNonEmpty(settings.Model, defaults.OpenAIModel),
		timeout: defaults.Timeout,
		client: openai.NewClient(
			azure.WithEndpoint(endpoint, apiVersion),
			azure.WithAPIKey(settings.APIKey),
			option.WithHTTPClient(defaults.httpClient()),
			option.WithMaxRetries(0),
		),
	}
}

func (p *chatProvider) Name() string {
	return p.name
}

func (p *chatProvider) GenerateOutline(ctx context.Context, markedText string) (Outline, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(markedText),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schemaName,
					Description: openai.String("Slides of a presentation outline"),
					Schema:      jsonSchema(true),
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return Outline{}, generationError(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return Outline{}, generationError(p.name, errors.New("response has no choices"))
	}

	message := resp.Choices[0].Message
	if message.Refusal != "" {
		return Outline{}, generationError(p.name, errors.New("model refused: "+message.Refusal))
	}
	outline, err := decode(message.Content)
	if err != nil {
		return Outline{}, generationError(p.name, err)
	}
	return outline, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
