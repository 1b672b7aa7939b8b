package outline

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

const schemaName = "slide_outline"

var systemInstruction = strings.Join([]string{
	"You are Notare, an assistant that drafts presentation outlines.",
	"The input is document text in which the reader's highlights are wrapped in " + MarkOpen + " and " + MarkClose + ".",
	"Build a slide deck outline. Give the ideas inside marked spans the most weight, but use the whole text for context.",
	"The first slide is the title slide of the deck.",
	"Each slide has a short title (at most 12 words) and a list of concise bullets (usually 2 to 6, at most 15 words each).",
	"Never copy the " + MarkOpen + " or " + MarkClose + " tokens, HTML or Markdown syntax into the output.",
	`Respond only with JSON of the form {"slides": [{"title": string, "bullets": [string]}]}.`,
}, "\n")

// completionPrompt is the single free-text prompt for completion backends.
func completionPrompt(markedText string) string {
	return systemInstruction + "\n\nDOCUMENT:\n" + markedText + "\n\nJSON:\n"
}

// jsonSchema describes an outline. strict forbids extra properties, as
// structured-output backends require.
func jsonSchema(strict bool) map[string]any {
	slide := map[string]any{
		"type":     "object",
		"required": []string{"title", "bullets"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"bullets": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
	root := map[string]any{
		"type":     "object",
		"required": []string{"slides"},
		"properties": map[string]any{
			"slides": map[string]any{
				"type":  "array",
				"items": slide,
			},
		},
	}
	if strict {
		slide["additionalProperties"] = false
		root["additionalProperties"] = false
	}
	return root
}

var lenientSchema = gojsonschema.NewGoLoader(jsonSchema(false))

// validateJSON checks raw against the outline schema.
func validateJSON(raw string) error {
	result, err := gojsonschema.Validate(lenientSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidResponse, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s", errInvalidResponse, strings.Join(problems, "; "))
	}
	return nil
}

func geminiSchema() *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"slides"},
		Properties: map[string]*genai.Schema{
			"slides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Required:         []string{"title", "bullets"},
					PropertyOrdering: []string{"title", "bullets"},
					Properties: map[string]*genai.Schema{
						"title": {Type: genai.TypeString},
						"bullets": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
				},
			},
		},
	}
}
