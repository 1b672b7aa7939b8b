package template

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ElSrJuez/notare/internal/pptx"
)

func defaultDeckBytes(t *testing.T) []byte {
	t.Helper()
	deck, err := pptx.New()
	require.NoError(t, err)
	data, err := deck.Bytes()
	require.NoError(t, err)
	return data
}

// rewriteDeck copies a package, letting edit change part contents and
// appending extra stored parts.
func rewriteDeck(t *testing.T, src []byte, edit func(name string, data []byte) []byte, extra map[string][]byte) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		if edit != nil {
			data = edit(f.Name, data)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: modified})
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	for name, data := range extra {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: modified})
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func renameLayout(from, to string) func(string, []byte) []byte {
	return func(name string, data []byte) []byte {
		return bytes.ReplaceAll(data, []byte(`name="`+from+`"`), []byte(`name="`+to+`"`))
	}
}

func newTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	if cfg.TempDir == "" {
		cfg.TempDir = t.TempDir()
	}
	return NewStore(cfg, zaptest.NewLogger(t))
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged files left behind")
}

func TestLoadBuiltinDefault(t *testing.T) {
	store := newTestStore(t, StoreConfig{})
	tmpl, err := store.Load(context.Background(), nil)
	require.NoError(t, err)
	defer tmpl.Close()

	assert.Equal(t, SourceBuiltin, tmpl.Source)
	require.Len(t, tmpl.Layouts, 5)
	assert.Equal(t, "Title Slide", tmpl.Layouts[0].Name)
	assert.True(t, tmpl.Layouts[0].Kinds.Has(KindTitle))
	assert.True(t, tmpl.Layouts[0].Kinds.Has(KindOther))
	assert.False(t, tmpl.Layouts[0].Kinds.Has(KindBody))
	assert.Equal(t, "{TITLE,BODY}", tmpl.Layouts[1].Kinds.String())
	assert.Equal(t, KindSet(0), tmpl.Layouts[4].Kinds)
}

func TestLoadUploadRemovesStagedFile(t *testing.T) {
	tempDir := t.TempDir()
	store := newTestStore(t, StoreConfig{TempDir: tempDir})

	tmpl, err := store.Load(context.Background(), defaultDeckBytes(t))
	require.NoError(t, err)
	assert.Equal(t, SourceUpload, tmpl.Source)
	assertDirEmpty(t, tempDir)

	require.NoError(t, tmpl.Close())
	require.NoError(t, tmpl.Close())
	assertDirEmpty(t, tempDir)
}

func TestLoadCorruptUpload(t *testing.T) {
	tempDir := t.TempDir()
	store := newTestStore(t, StoreConfig{TempDir: tempDir})

	_, err := store.Load(context.Background(), []byte("definitely not a presentation"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, pptx.ErrNotPresentation)
	assertDirEmpty(t, tempDir)
}

func TestLoadRejectsTemplateWithoutLayouts(t *testing.T) {
	noLayouts := regexp.MustCompile(`<p:sldLayoutIdLst>.*</p:sldLayoutIdLst>`)
	data := rewriteDeck(t, defaultDeckBytes(t), func(name string, data []byte) []byte {
		if name == "ppt/slideMasters/slideMaster1.xml" {
			return noLayouts.ReplaceAll(data, []byte(`<p:sldLayoutIdLst/>`))
		}
		return data
	}, nil)

	_, err := newTestStore(t, StoreConfig{}).Load(context.Background(), data)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, errNoLayouts)
}

func TestLoadSizeLimit(t *testing.T) {
	base := defaultDeckBytes(t)
	padded := func(n int) []byte {
		return rewriteDeck(t, base, nil, map[string][]byte{"ppt/media/padding.bin": make([]byte, n)})
	}
	// Stored entries grow the archive one byte per payload byte.
	pad := int(MaxTemplateBytes) - len(padded(0))
	exact := padded(pad)
	require.Len(t, exact, int(MaxTemplateBytes))

	tempDir := t.TempDir()
	store := newTestStore(t, StoreConfig{TempDir: tempDir})

	tmpl, err := store.Load(context.Background(), exact)
	require.NoError(t, err)
	require.NoError(t, tmpl.Close())

	_, err = store.Load(context.Background(), padded(pad+1))
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, MaxTemplateBytes+1, tooLarge.Size)
	assertDirEmpty(t, tempDir)
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize(MaxTemplateBytes))
	assert.Error(t, CheckSize(MaxTemplateBytes+1))
}

func TestLoadDefaultFromDirectory(t *testing.T) {
	dir := t.TempDir()
	deck, err := pptx.New()
	require.NoError(t, err)
	_, err = deck.AddSlide(deck.Layouts()[0])
	require.NoError(t, err)
	data, err := deck.Bytes()
	require.NoError(t, err)
	data = rewriteDeck(t, data, renameLayout("Title Slide", "Corporate Cover"), nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pptx"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pptx"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	store := newTestStore(t, StoreConfig{DefaultDir: dir})
	tmpl, err := store.Load(context.Background(), nil)
	require.NoError(t, err)
	defer tmpl.Close()

	assert.Equal(t, SourceDirectory, tmpl.Source)
	assert.Equal(t, filepath.Join(dir, "a.pptx"), tmpl.Path)
	assert.Equal(t, "Corporate Cover", tmpl.Layouts[0].Name)
	assert.Empty(t, tmpl.Deck.Slides())
}

func TestLoadDefaultFallsBackToBuiltin(t *testing.T) {
	store := newTestStore(t, StoreConfig{DefaultDir: t.TempDir()})
	tmpl, err := store.Load(context.Background(), nil)
	require.NoError(t, err)
	defer tmpl.Close()
	assert.Equal(t, SourceBuiltin, tmpl.Source)
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestStore(t, StoreConfig{}).Load(ctx, defaultDeckBytes(t))
	assert.ErrorIs(t, err, context.Canceled)
}
