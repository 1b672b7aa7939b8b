package outline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func llamaServer(t *testing.T, status int, body string, seen *completionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/completions", r.URL.Path)
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLlama(t *testing.T, endpoint string) Provider {
	t.Helper()
	p, err := New(context.Background(), Settings{Provider: "llama", Endpoint: endpoint}, DefaultDefaults(), nil)
	require.NoError(t, err)
	return p
}

func completionBody(text string) string {
	b, _ := json.Marshal(map[string]any{"choices": []map[string]string{{"text": text}}})
	return string(b)
}

func TestLlamaParsesJSONOutOfCompletionText(t *testing.T) {
	var seen completionRequest
	text := "Here is the outline:\n" + `{"slides":[{"title":"Intro","bullets":["a","b"]},{"title":"Next","bullets":[]}]}` + "\nDone."
	srv := llamaServer(t, http.StatusOK, completionBody(text), &seen)

	got, err := newLlama(t, srv.URL+"/completions").GenerateOutline(context.Background(), "text with <<mark>>key<</mark>> part")
	require.NoError(t, err)
	assert.Equal(t, Outline{Slides: []Slide{
		{Title: "Intro", Bullets: []string{"a", "b"}},
		{Title: "Next", Bullets: []string{}},
	}}, got)

	assert.Contains(t, seen.Prompt, "<<mark>>key<</mark>>")
	assert.Contains(t, seen.Prompt, MarkOpen)
	assert.Equal(t, 800, seen.MaxTokens)
	assert.InDelta(t, 0.4, seen.Temperature, 1e-9)
}

func TestLlamaReadsNativeContentField(t *testing.T) {
	srv := llamaServer(t, http.StatusOK, `{"content":"{\"slides\":[{\"title\":\"Only\",\"bullets\":[\"x\"]}]}"}`, nil)
	got, err := newLlama(t, srv.URL+"/completions").GenerateOutline(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, got.Slides, 1)
	assert.Equal(t, "Only", got.Slides[0].Title)
}

func TestLlamaFailures(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		category string
	}{
		{"non json text", http.StatusOK, completionBody("I cannot help with that."), "invalid_response"},
		{"schema mismatch", http.StatusOK, completionBody(`{"slides":[{"title":3,"bullets":"no"}]}`), "invalid_response"},
		{"missing slides", http.StatusOK, completionBody(`{"deck":[]}`), "invalid_response"},
		{"zero slides", http.StatusOK, completionBody(`{"slides":[]}`), "invalid_response"},
		{"empty completion", http.StatusOK, `{"choices":[]}`, "invalid_response"},
		{"body not json", http.StatusOK, `<html>`, "invalid_response"},
		{"upstream error", http.StatusBadGateway, `model loading`, "upstream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := llamaServer(t, tc.status, tc.body, nil)
			got, err := newLlama(t, srv.URL+"/completions").GenerateOutline(context.Background(), "doc")
			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "llama", genErr.Provider)
			assert.Empty(t, got.Slides)
			assert.Equal(t, tc.category, ErrorCategory(err))
		})
	}
}

func TestLlamaUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newLlama(t, url+"/completions").GenerateOutline(context.Background(), "doc")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.True(t, strings.Contains(err.Error(), "llama outline generation failed"))
}
