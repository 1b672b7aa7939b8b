package connectors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ElSrJuez/notare/internal/config"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
)

type fakeGoogleDocsClient struct {
	document *docs.Document
	getErr   error
	lastID   string
}

func (f *fakeGoogleDocsClient) GetDocument(_ context.Context, documentID string) (*docs.Document, error) {
	f.lastID = documentID
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.document, nil
}

func connectorWith(client googleDocsClient) *GoogleDocsConnector {
	return &GoogleDocsConnector{
		newClient: func(_ context.Context, _ string) (googleDocsClient, error) {
			return client, nil
		},
	}
}

func run(content string, style *docs.TextStyle) *docs.ParagraphElement {
	return &docs.ParagraphElement{TextRun: &docs.TextRun{Content: content, TextStyle: style}}
}

var yellow = &docs.TextStyle{BackgroundColor: &docs.OptionalColor{
	Color: &docs.Color{RgbColor: &docs.RgbColor{Red: 1, Green: 1, Blue: 0}},
}}

func TestGoogleDocsImportDocument(t *testing.T) {
	client := &fakeGoogleDocsClient{
		document: &docs.Document{
			Title: "Roadmap",
			Lists: map[string]docs.List{
				"list-num": {ListProperties: &docs.ListProperties{
					NestingLevels: []*docs.NestingLevel{{GlyphType: "DECIMAL"}},
				}},
			},
			Body: &docs.Body{
				Content: []*docs.StructuralElement{
					{Paragraph: &docs.Paragraph{
						ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: "HEADING_1"},
						Elements:       []*docs.ParagraphElement{run("Plan\n", nil)},
					}},
					{Paragraph: &docs.Paragraph{
						Elements: []*docs.ParagraphElement{
							run("We ", nil),
							run("launch", yellow),
							run(" in spring", yellow),
							run(" & ", nil),
							run("grow", &docs.TextStyle{Bold: true}),
							run("\n", nil),
						},
					}},
					{Paragraph: &docs.Paragraph{
						Bullet:   &docs.Bullet{ListId: "list-bul"},
						Elements: []*docs.ParagraphElement{run("one\n", nil)},
					}},
					{Paragraph: &docs.Paragraph{
						Bullet:   &docs.Bullet{ListId: "list-num", NestingLevel: 0},
						Elements: []*docs.ParagraphElement{run("two\n", &docs.TextStyle{Italic: true})},
					}},
					{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{run("\n", nil)}}},
				},
			},
		},
	}

	document, err := connectorWith(client).ImportDocument(context.Background(), ImportRequest{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if document.ID != "doc-1" || document.Title != "Roadmap" || document.Format != "html" {
		t.Fatalf("unexpected document metadata: %+v", document)
	}
	expected := "<h1>Plan</h1>\n" +
		"<p>We <mark>launch in spring</mark> &amp; <strong>grow</strong></p>\n" +
		"<ul><li>one</li></ul>"
	if !strings.HasPrefix(document.Content, expected) {
		t.Fatalf("unexpected content:\n%s", document.Content)
	}
	if !strings.Contains(document.Content, "<em>two</em>") {
		t.Fatalf("expected italic list item, got:\n%s", document.Content)
	}
}

func TestRenderDocumentHTMLNestedListsAndTables(t *testing.T) {
	document := &docs.Document{
		Lists: map[string]docs.List{
			"l": {ListProperties: &docs.ListProperties{
				NestingLevels: []*docs.NestingLevel{{GlyphType: "GLYPH_TYPE_UNSPECIFIED"}, {GlyphType: "DECIMAL"}},
			}},
		},
		Body: &docs.Body{Content: []*docs.StructuralElement{
			{Paragraph: &docs.Paragraph{Bullet: &docs.Bullet{ListId: "l"}, Elements: []*docs.ParagraphElement{run("a\n", nil)}}},
			{Paragraph: &docs.Paragraph{Bullet: &docs.Bullet{ListId: "l", NestingLevel: 1}, Elements: []*docs.ParagraphElement{run("b\n", nil)}}},
			{Table: &docs.Table{TableRows: []*docs.TableRow{{
				TableCells: []*docs.TableCell{
					{Content: []*docs.StructuralElement{{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{run("x\n", yellow)}}}}},
				},
			}}}},
		}},
	}

	got := renderDocumentHTML(document)
	if !strings.HasPrefix(got, "<ul><li>a</li><ol><li>b</li></ol></ul>\n<table><tr><td><p><mark>x</mark></p>") {
		t.Fatalf("unexpected html:\n%s", got)
	}
}

func TestIsHighlighted(t *testing.T) {
	white := &docs.TextStyle{BackgroundColor: &docs.OptionalColor{
		Color: &docs.Color{RgbColor: &docs.RgbColor{Red: 1, Green: 1, Blue: 1}},
	}}
	transparent := &docs.TextStyle{BackgroundColor: &docs.OptionalColor{}}

	if isHighlighted(nil) || isHighlighted(white) || isHighlighted(transparent) {
		t.Fatalf("expected no highlight for nil, white or transparent backgrounds")
	}
	if !isHighlighted(yellow) {
		t.Fatalf("expected yellow background to be a highlight")
	}
}

func TestGoogleDocsImportUnavailable(t *testing.T) {
	connector := &GoogleDocsConnector{
		newClient: func(_ context.Context, _ string) (googleDocsClient, error) {
			return nil, ErrUnavailable
		},
	}

	_, err := connector.ImportDocument(context.Background(), ImportRequest{DocumentID: "doc-1"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGoogleDocsImportMapsAPIErrors(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrDocumentNotFound},
		{429, ErrUnavailable},
		{503, ErrUnavailable},
	}

	for _, tc := range cases {
		client := &fakeGoogleDocsClient{getErr: &googleapi.Error{Code: tc.code}}
		_, err := connectorWith(client).ImportDocument(context.Background(), ImportRequest{DocumentID: "doc-1"})
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %d: expected %v, got %v", tc.code, tc.want, err)
		}
	}
}

func TestGoogleDocsTokenSourceSelection(t *testing.T) {
	ctx := context.Background()

	source, err := googleDocsTokenSource(ctx, "static", nil, "")
	if err != nil || source == nil {
		t.Fatalf("expected static source, got %v %v", source, err)
	}
	token, _ := source.Token()
	if token.AccessToken != "static" {
		t.Fatalf("expected static token, got %q", token.AccessToken)
	}

	if source, err := googleDocsTokenSource(ctx, "", nil, ""); source != nil || err != nil {
		t.Fatalf("expected no source without credentials")
	}

	store := NewInMemoryOAuthTokenStore()
	manager, err := NewGoogleDocsOAuthManager(testOAuthConfig("https://accounts.example.com"), store)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := googleDocsTokenSource(ctx, "static", manager, "unknown"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown session, got %v", err)
	}

	_ = store.SaveToken(ctx, "session-1", &oauth2.Token{AccessToken: "session-access", TokenType: "Bearer"})
	source, err = googleDocsTokenSource(ctx, "static", manager, "session-1")
	if err != nil {
		t.Fatalf("expected session source, got %v", err)
	}
	token, _ = source.Token()
	if token.AccessToken != "session-access" {
		t.Fatalf("expected session token, got %q", token.AccessToken)
	}
}

func TestNewGoogleDocsConnectorRequiresCredentials(t *testing.T) {
	if _, err := NewGoogleDocsConnector(config.GoogleDocsConfig{}, nil); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
