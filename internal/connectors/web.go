package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/ElSrJuez/notare/internal/config"
	"github.com/ElSrJuez/notare/internal/domain"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var ErrPageTooLarge = errors.New("page exceeds the size limit")

const boilerplateSelector = "script, style, noscript, nav, footer, aside, header, form, iframe"

// WebNormalizer fetches a page and reduces it to its main content while
// keeping highlight markup.
type WebNormalizer struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	policy    *bluemonday.Policy
}

func NewWebNormalizer(cfg config.WebConfig) *WebNormalizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}

	return &WebNormalizer{
		client:    &http.Client{Timeout: timeout},
		maxBytes:  maxBytes,
		userAgent: cfg.UserAgent,
		policy:    highlightPolicy(),
	}
}

func highlightPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^notare-mark$`)).OnElements("span", "mark")
	p.AllowAttrs("data-highlighted").Matching(regexp.MustCompile(`^true$`)).OnElements("span", "mark")
	return p
}

func (n *WebNormalizer) Normalize(ctx context.Context, rawURL string) (domain.Page, error) {
	target, err := parsePageURL(rawURL)
	if err != nil {
		return domain.Page{}, err
	}

	body, err := n.fetch(ctx, target)
	if err != nil {
		return domain.Page{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: parse page: %v", ErrUnavailable, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(boilerplateSelector).Remove()

	stripped, err := doc.Html()
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: render page: %v", ErrUnavailable, err)
	}

	content := mainContent(stripped, target)
	if content == "" {
		content, _ = doc.Find("body").Html()
	}

	return domain.Page{
		URL:       target.String(),
		Title:     title,
		CleanHTML: strings.TrimSpace(n.policy.Sanitize(content)),
	}, nil
}

func (n *WebNormalizer) fetch(ctx context.Context, target *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", ErrForbidden, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if int64(len(raw)) > n.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrPageTooLarge, n.maxBytes)
	}
	return string(raw), nil
}

// mainContent returns the readability extraction, or "" when it finds no
// text worth keeping.
func mainContent(page string, target *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(page), target)
	if err != nil {
		return ""
	}

	var text strings.Builder
	if err := article.RenderText(&text); err != nil || strings.TrimSpace(text.String()) == "" {
		return ""
	}

	var out strings.Builder
	if err := article.RenderHTML(&out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

func parsePageURL(rawURL string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return target, nil
}
