package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type apiClient struct {
	baseURL          string
	connectorKey     string
	connectorSession string
	httpClient       *http.Client
}

type apiError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

// multipartForm is a set of text fields plus an optional file part.
type multipartForm struct {
	fields   map[string]string
	fileName string
	filePath string
}

func (c *apiClient) getJSON(ctx context.Context, path string) ([]byte, error) {
	res, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return res.body, nil
}

func (c *apiClient) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return nil, err
	}
	return res.body, nil
}

func (c *apiClient) postMultipart(ctx context.Context, path string, form multipartForm) (*apiResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range form.fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if form.filePath != "" {
		file, err := os.Open(form.filePath)
		if err != nil {
			return nil, newUsageError("invalid_arguments", "open %s: %v", form.filePath, err)
		}
		defer file.Close()

		part, err := writer.CreateFormFile(form.fileName, filepath.Base(form.filePath))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodPost, path, &body, writer.FormDataContentType())
}

type apiResponse struct {
	header http.Header
	body   []byte
}

func (c *apiClient) do(ctx context.Context, method string, path string, body io.Reader, contentType string) (*apiResponse, error) {
	requestURL, err := c.resolveURL(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.connectorKey != "" {
		req.Header.Set("X-Connector-Key", c.connectorKey)
	}
	if c.connectorSession != "" {
		req.Header.Set("X-Connector-Session", c.connectorSession)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= 400 {
		apiErr := &apiError{
			Status:  res.StatusCode,
			Code:    "http_error",
			Message: strings.TrimSpace(string(responseBody)),
		}

		var envelope struct {
			Error struct {
				Code      string `json:"code"`
				Message   string `json:"message"`
				RequestID string `json:"requestId"`
			} `json:"error"`
		}
		if err := json.Unmarshal(responseBody, &envelope); err == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			apiErr.RequestID = envelope.Error.RequestID
		}
		return nil, apiErr
	}

	return &apiResponse{header: res.Header, body: responseBody}, nil
}

func (c *apiClient) resolveURL(path string) (string, error) {
	base := strings.TrimSpace(c.baseURL)
	if base == "" {
		return "", errors.New("base URL is required")
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	pathURL, err := url.Parse(path)
	if err != nil {
		return "", err
	}

	return baseURL.ResolveReference(pathURL).String(), nil
}

func writeStructuredJSON(output io.Writer, body []byte) error {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return writeJSON(output, data)
}

func writeJSON(output io.Writer, data any) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func writeCLIError(output io.Writer, code string, message string, status int) {
	payload := map[string]any{
		"code":    code,
		"message": message,
	}
	if status > 0 {
		payload["status"] = status
	}
	_ = writeJSON(output, map[string]any{"error": payload})
}
