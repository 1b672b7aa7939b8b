package connectors

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/ElSrJuez/notare/internal/config"
	"github.com/ElSrJuez/notare/internal/domain"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleDocsConnector imports a Google Doc as HTML. Text with a background
// color is treated as highlighted and becomes a <mark> element.
type GoogleDocsConnector struct {
	newClient func(ctx context.Context, sessionKey string) (googleDocsClient, error)
}

type googleDocsClient interface {
	GetDocument(ctx context.Context, documentID string) (*docs.Document, error)
}

type googleDocsAPIClient struct {
	service *docs.Service
}

func (c *googleDocsAPIClient) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	return c.service.Documents.Get(documentID).Context(ctx).Do()
}

// NewGoogleDocsConnector needs a static token, a credentials file or an
// OAuth manager.
func NewGoogleDocsConnector(cfg config.GoogleDocsConfig, oauth *GoogleDocsOAuthManager) (*GoogleDocsConnector, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if token == "" && credentialsFile == "" && oauth == nil {
		return nil, errors.New("google docs needs access_token, credentials_file or oauth")
	}

	return &GoogleDocsConnector{
		newClient: func(ctx context.Context, sessionKey string) (googleDocsClient, error) {
			source, err := googleDocsTokenSource(ctx, token, oauth, sessionKey)
			if err != nil {
				return nil, err
			}

			opts := []option.ClientOption{option.WithScopes(docs.DocumentsReadonlyScope)}
			switch {
			case source != nil:
				opts = append(opts, option.WithTokenSource(source))
			case credentialsFile != "":
				opts = append(opts, option.WithCredentialsFile(credentialsFile))
			default:
				return nil, fmt.Errorf("%w: no google docs credentials for this request", ErrUnavailable)
			}

			service, err := docs.NewService(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return &googleDocsAPIClient{service: service}, nil
		},
	}, nil
}

// googleDocsTokenSource prefers the OAuth session when one is named. A named
// session without a stored token is unauthorized rather than silently
// falling back to server credentials.
func googleDocsTokenSource(ctx context.Context, staticToken string, oauth *GoogleDocsOAuthManager, sessionKey string) (oauth2.TokenSource, error) {
	if sessionKey != "" && oauth != nil {
		source, ok, err := oauth.TokenSource(ctx, sessionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown oauth session", ErrUnauthorized)
		}
		return source, nil
	}
	if staticToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: staticToken}), nil
	}
	return nil, nil
}

func (g *GoogleDocsConnector) Name() string {
	return "google_docs"
}

func (g *GoogleDocsConnector) ImportDocument(ctx context.Context, req ImportRequest) (domain.Document, error) {
	client, err := g.newClient(ctx, strings.TrimSpace(req.SessionKey))
	if err != nil {
		return domain.Document{}, err
	}

	document, err := client.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return domain.Document{}, mapGoogleDocsError(err)
	}

	title := strings.TrimSpace(document.Title)
	if title == "" {
		title = req.DocumentID
	}

	return domain.Document{
		ID:      req.DocumentID,
		Title:   title,
		Content: renderDocumentHTML(document),
		Format:  "html",
	}, nil
}

func renderDocumentHTML(document *docs.Document) string {
	if document == nil || document.Body == nil {
		return ""
	}

	r := &docRenderer{lists: document.Lists}
	r.elements(document.Body.Content)
	r.closeLists(0)
	return strings.TrimSpace(r.b.String())
}

type docRenderer struct {
	b      strings.Builder
	lists  map[string]docs.List
	open   []string
	listID string
}

func (r *docRenderer) elements(elements []*docs.StructuralElement) {
	for _, element := range elements {
		if element == nil {
			continue
		}

		switch {
		case element.Paragraph != nil:
			r.paragraph(element.Paragraph)
		case element.Table != nil:
			r.closeLists(0)
			r.table(element.Table)
		}
	}
}

func (r *docRenderer) paragraph(p *docs.Paragraph) {
	inline := renderInline(p.Elements)
	if p.Bullet != nil {
		if p.Bullet.ListId != r.listID {
			r.closeLists(0)
			r.listID = p.Bullet.ListId
		}
		depth := int(p.Bullet.NestingLevel) + 1
		r.closeLists(depth)
		for len(r.open) < depth {
			tag := r.listTag(p.Bullet.ListId, int64(len(r.open)))
			r.open = append(r.open, tag)
			r.b.WriteString("<" + tag + ">")
		}
		r.b.WriteString("<li>" + inline + "</li>")
		return
	}

	r.closeLists(0)
	if strings.TrimSpace(inline) == "" {
		return
	}
	tag := "p"
	if p.ParagraphStyle != nil {
		tag = blockTag(p.ParagraphStyle.NamedStyleType)
	}
	r.b.WriteString("<" + tag + ">" + inline + "</" + tag + ">\n")
}

func (r *docRenderer) table(t *docs.Table) {
	r.b.WriteString("<table>")
	for _, row := range t.TableRows {
		if row == nil {
			continue
		}
		r.b.WriteString("<tr>")
		for _, cell := range row.TableCells {
			if cell == nil {
				continue
			}
			r.b.WriteString("<td>")
			r.elements(cell.Content)
			r.closeLists(0)
			r.b.WriteString("</td>")
		}
		r.b.WriteString("</tr>")
	}
	r.b.WriteString("</table>\n")
}

func (r *docRenderer) closeLists(depth int) {
	if len(r.open) <= depth {
		return
	}
	for len(r.open) > depth {
		last := len(r.open) - 1
		r.b.WriteString("</" + r.open[last] + ">")
		r.open = r.open[:last]
	}
	if depth == 0 {
		r.listID = ""
		r.b.WriteString("\n")
	}
}

func (r *docRenderer) listTag(listID string, level int64) string {
	list, ok := r.lists[listID]
	if !ok || list.ListProperties == nil || level >= int64(len(list.ListProperties.NestingLevels)) {
		return "ul"
	}
	nesting := list.ListProperties.NestingLevels[level]
	if nesting == nil {
		return "ul"
	}
	switch nesting.GlyphType {
	case "DECIMAL", "ZERO_DECIMAL", "UPPER_ALPHA", "ALPHA", "UPPER_ROMAN", "ROMAN":
		return "ol"
	}
	return "ul"
}

func blockTag(namedStyle string) string {
	switch namedStyle {
	case "TITLE", "HEADING_1":
		return "h1"
	case "SUBTITLE", "HEADING_2":
		return "h2"
	case "HEADING_3":
		return "h3"
	case "HEADING_4":
		return "h4"
	case "HEADING_5":
		return "h5"
	case "HEADING_6":
		return "h6"
	}
	return "p"
}

// renderInline merges consecutive highlighted runs into one <mark>.
func renderInline(elements []*docs.ParagraphElement) string {
	var b strings.Builder
	marked := false

	for _, element := range elements {
		if element == nil || element.TextRun == nil {
			continue
		}
		run := element.TextRun
		content := strings.TrimRight(run.Content, "\n")
		content = strings.ReplaceAll(content, "\v", "\n")
		if content == "" {
			continue
		}

		highlighted := isHighlighted(run.TextStyle)
		if highlighted != marked {
			if highlighted {
				b.WriteString("<mark>")
			} else {
				b.WriteString("</mark>")
			}
			marked = highlighted
		}

		text := escapeText(content)
		if style := run.TextStyle; style != nil {
			if style.Italic {
				text = "<em>" + text + "</em>"
			}
			if style.Bold {
				text = "<strong>" + text + "</strong>"
			}
		}
		b.WriteString(text)
	}
	if marked {
		b.WriteString("</mark>")
	}
	return b.String()
}

func escapeText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "<br>")
}

func isHighlighted(style *docs.TextStyle) bool {
	if style == nil || style.BackgroundColor == nil || style.BackgroundColor.Color == nil {
		return false
	}
	rgb := style.BackgroundColor.Color.RgbColor
	if rgb == nil {
		// An empty RgbColor is black.
		return true
	}
	const white = 0.98
	return rgb.Red < white || rgb.Green < white || rgb.Blue < white
}

func mapGoogleDocsError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case 403:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case 404:
			return fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
		case 429:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			if apiErr.Code >= 500 {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
	}

	return err
}
