package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/ElSrJuez/notare/internal/pptx"
)

// MaxTemplateBytes is the largest accepted template upload.
const MaxTemplateBytes int64 = 5 << 20

var errNoLayouts = errors.New("presentation has no slide layouts")

// StoreConfig controls where default templates come from and where uploads
// are staged.
type StoreConfig struct {
	// DefaultDir is searched for a *.pptx used when no template is uploaded.
	DefaultDir string
	// TempDir holds staged uploads; empty means os.TempDir().
	TempDir string
}

// Store loads templates for a single request at a time. It keeps no state
// between loads.
type Store struct {
	cfg    StoreConfig
	logger *zap.Logger
}

// NewStore returns a Store. A nil logger disables logging.
func NewStore(cfg StoreConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, logger: logger}
}

// CheckSize rejects sizes above MaxTemplateBytes.
func CheckSize(size int64) error {
	if size > MaxTemplateBytes {
		return &PayloadTooLargeError{Size: size, Limit: MaxTemplateBytes}
	}
	return nil
}

// Load returns the template held in data, or the default template when data
// is nil. Existing slides are removed so the deck only receives generated
// slides. The caller must Close the returned Template.
func (s *Store) Load(ctx context.Context, data []byte) (*Template, error) {
	if data == nil {
		return s.loadDefault(ctx)
	}
	if err := CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	staged, err := s.stage(data)
	if err != nil {
		return nil, fmt.Errorf("stage template: %w", err)
	}

	deck, openErr := pptx.Open(staged)
	removeErr := removeStaged(staged)
	if removeErr != nil {
		s.logger.Warn("failed to remove staged template", zap.String("path", staged), zap.Error(removeErr))
	}
	if openErr != nil {
		return nil, &LoadError{Err: openErr}
	}

	t, err := prepare(deck, SourceUpload)
	if err != nil {
		return nil, err
	}
	t.tempPath = staged
	s.logger.Debug("template loaded",
		zap.String("source", t.Source),
		zap.Int("bytes", len(data)),
		zap.Int("layouts", len(t.Layouts)),
	)
	return t, nil
}

func (s *Store) stage(data []byte) (string, error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "notare-template-*.pptx")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = removeStaged(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = removeStaged(name)
		return "", err
	}
	return name, nil
}

func (s *Store) loadDefault(ctx context.Context) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path := s.defaultTemplatePath(); path != "" {
		deck, err := pptx.Open(path)
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("%s: %w", filepath.Base(path), err)}
		}
		t, err := prepare(deck, SourceDirectory)
		if err != nil {
			return nil, err
		}
		t.Path = path
		return t, nil
	}

	deck, err := pptx.New()
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return prepare(deck, SourceBuiltin)
}

// defaultTemplatePath returns the first *.pptx in DefaultDir in lexical order.
func (s *Store) defaultTemplatePath() string {
	if s.cfg.DefaultDir == "" {
		return ""
	}
	matches, err := filepath.Glob(filepath.Join(s.cfg.DefaultDir, "*.pptx"))
	if err != nil || len(matches) == 0 {
		if err != nil {
			s.logger.Warn("template directory unreadable", zap.String("dir", s.cfg.DefaultDir), zap.Error(err))
		}
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

func prepare(deck *pptx.Presentation, source string) (*Template, error) {
	if err := deck.RemoveSlides(); err != nil {
		return nil, &LoadError{Err: err}
	}
	t := newTemplate(deck, source)
	if len(t.Layouts) == 0 {
		return nil, &LoadError{Err: errNoLayouts}
	}
	return t, nil
}
