package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/repository"
	"github.com/joseph-ayodele/docs-extractor/internal/storage"
)

type textFunc func(ctx context.Context, path string) (ocr.ExtractionResult, error)

func (f textFunc) Extract(ctx context.Context, path string) (ocr.ExtractionResult, error) {
	return f(ctx, path)
}

type harness struct {
	proc      *Processor
	repo      repository.DocumentRepository
	uploadDir string
	mu        sync.Mutex
	textCalls []string
	llmCalls  int
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, text, response string) *harness {
	t.Helper()
	return newHarnessWithUploads(t, text, response, filepath.Join(t.TempDir(), "uploads"))
}

func newHarnessWithUploads(t *testing.T, text, response, uploadDir string) *harness {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{URL: "sqlite://:memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, repository.Migrate(context.Background(), db))

	h := &harness{
		repo:      repository.NewDocumentRepository(db, nil),
		uploadDir: uploadDir,
	}
	source := textFunc(func(_ context.Context, path string) (ocr.ExtractionResult, error) {
		h.mu.Lock()
		h.textCalls = append(h.textCalls, path)
		h.mu.Unlock()
		return ocr.ExtractionResult{Text: text, Pages: 1, Method: "pdf-text"}, nil
	})
	completer := llm.CompleterFunc(func(context.Context, string) (string, error) {
		h.mu.Lock()
		h.llmCalls++
		h.mu.Unlock()
		return response, nil
	})
	h.proc = NewProcessor(
		source,
		extract.NewDefaultRouter(completer, extract.Options{}, nil),
		h.repo,
		storage.NewLocalStore(h.uploadDir, nil),
		nil,
		WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("doc"), 0o644))
	return p
}

func (h *harness) uploads(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.uploadDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

const acmeText = "Vendor: Acme Corp\nTotal: 42.50"
const acmeJSON = `{"vendor_name":"Acme Corp","amount":42.5,"products":[],"total_amount":42.5,"date":"2024-01-05"}`

func TestProcessFile_AcmeInvoice(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)
	src := writeDoc(t, t.TempDir(), "invoice.pdf")

	rep, err := h.proc.ProcessFile(context.Background(), src, "invoice")
	require.NoError(t, err)
	require.True(t, rep.OK(), rep.String())
	assert.Equal(t, constants.Invoice, rep.DocumentType)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "pdf-text", rep.Method)

	doc, err := h.repo.Get(context.Background(), constants.Invoice, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", doc.VendorName)
	assert.InDelta(t, 42.5, doc.TotalAmount, 1e-9)
	assert.InDelta(t, 42.5, doc.Amount, 1e-9)
	assert.Empty(t, doc.Products)
	assert.Equal(t, "2024-01-05", doc.Date.Format("2006-01-02"))
	assert.False(t, doc.DateDefaulted)

	require.NotNil(t, doc.FilePath)
	assert.Equal(t, rep.Location, *doc.FilePath)
	assert.True(t, strings.HasSuffix(*doc.FilePath, "_invoice.pdf"))

	// extraction reads the stored copy
	require.Len(t, h.textCalls, 1)
	assert.Equal(t, rep.Location, h.textCalls[0])
}

func TestProcessFile_UnsupportedTypeTouchesNothing(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)
	src := writeDoc(t, t.TempDir(), "doc.pdf")

	rep, err := h.proc.ProcessFile(context.Background(), src, "fax")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedType)
	assert.Equal(t, common.CodeUnsupportedType, rep.Code)

	assert.Empty(t, h.uploads(t))
	assert.Empty(t, h.textCalls)
	assert.Zero(t, h.llmCalls)
	for _, docType := range constants.DocumentTypes {
		docs, err := h.repo.List(context.Background(), docType)
		require.NoError(t, err)
		assert.Empty(t, docs)
	}
}

func TestProcessFile_ProseIsMalformed(t *testing.T) {
	h := newHarness(t, acmeText, "I could not find any invoice details in this document.")
	src := writeDoc(t, t.TempDir(), "doc.pdf")

	rep, err := h.proc.ProcessFile(context.Background(), src, "invoice")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
	assert.Equal(t, common.CodeMalformedResponse, rep.Code)

	docs, err := h.repo.List(context.Background(), constants.Invoice)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProcessFile_MissingVendorIsPersistenceError(t *testing.T) {
	h := newHarness(t, acmeText, `{"vendor_name":null,"amount":10,"products":[],"total_amount":10,"date":"2024-01-05"}`)
	src := writeDoc(t, t.TempDir(), "receipt.png")

	rep, err := h.proc.ProcessFile(context.Background(), src, "receipt")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, common.CodePersistence, rep.Code)
	assert.NotEmpty(t, rep.Message)

	docs, err := h.repo.List(context.Background(), constants.Receipt)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProcessFile_MissingDateDefaultsToNow(t *testing.T) {
	h := newHarness(t, acmeText, `{"vendor_name":"Corner Shop","amount":"$3.20","products":["coffee"],"total_amount":"3.20","date":"sometime last week"}`)
	src := writeDoc(t, t.TempDir(), "receipt.jpg")

	rep, err := h.proc.ProcessFile(context.Background(), src, "Receipt")
	require.NoError(t, err)
	assert.True(t, rep.DateDefaulted)

	doc, err := h.repo.Get(context.Background(), constants.Receipt, rep.ID)
	require.NoError(t, err)
	assert.True(t, doc.Date.Equal(fixedNow), doc.Date.String())
	assert.True(t, doc.DateDefaulted)
	assert.InDelta(t, 3.2, doc.Amount, 1e-9)
	require.Len(t, doc.Products, 1)
	assert.Equal(t, "coffee", doc.Products[0].Name)
}

func TestProcessFile_MissingFile(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)

	_, err := h.proc.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), "invoice")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, h.textCalls)
}

func TestProcessFile_KeepsCallerRunID(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)
	src := writeDoc(t, t.TempDir(), "invoice.pdf")

	rep, err := h.proc.ProcessFile(common.WithRunID(context.Background(), "run-1"), src, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rep.RunID)
}

func TestProcessDirectory(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)
	root := t.TempDir()
	writeDoc(t, root, "a.pdf")
	writeDoc(t, root, "scans/b.PNG")
	writeDoc(t, root, "notes.txt")
	writeDoc(t, root, ".cache/c.pdf")
	writeDoc(t, root, ".d.tiff")

	results, stats, err := h.proc.ProcessDirectory(context.Background(), root, "invoice", true)
	require.NoError(t, err)
	assert.Equal(t, DirStats{Scanned: 3, Matched: 2, Succeeded: 2}, stats)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Empty(t, r.Err)
		assert.True(t, r.Report.OK())
	}

	docs, err := h.repo.List(context.Background(), constants.Invoice)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, stats, err = h.proc.ProcessDirectory(context.Background(), root, "invoice", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Matched)
}

func TestProcessDirectory_SkipsUploadDir(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.pdf")
	writeDoc(t, root, "b.pdf")
	h := newHarnessWithUploads(t, acmeText, acmeJSON, filepath.Join(root, "uploads"))

	// a copy left by an earlier run
	writeDoc(t, h.uploadDir, "1700000000_old.pdf")

	for i := 0; i < 2; i++ {
		_, stats, err := h.proc.ProcessDirectory(context.Background(), root, "invoice", true)
		require.NoError(t, err)
		assert.Equal(t, DirStats{Scanned: 2, Matched: 2, Succeeded: 2}, stats, "run %d", i)
	}

	docs, err := h.repo.List(context.Background(), constants.Invoice)
	require.NoError(t, err)
	assert.Len(t, docs, 4)
	for _, d := range docs {
		require.NotNil(t, d.FilePath)
		assert.NotContains(t, filepath.Base(*d.FilePath), "_old.pdf")
	}
}

func TestProcessDirectory_RelativeUploadDir(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.pdf")
	t.Chdir(root)
	h := newHarnessWithUploads(t, acmeText, acmeJSON, "uploads")
	writeDoc(t, root, "uploads/1700000000_a.pdf")

	_, stats, err := h.proc.ProcessDirectory(context.Background(), ".", "invoice", true)
	require.NoError(t, err)
	assert.Equal(t, DirStats{Scanned: 1, Matched: 1, Succeeded: 1}, stats)
}

func TestProcessDirectory_RecordsFailures(t *testing.T) {
	h := newHarness(t, acmeText, "no json here")
	root := t.TempDir()
	writeDoc(t, root, "a.pdf")

	results, stats, err := h.proc.ProcessDirectory(context.Background(), root, "receipt", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Failed)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Err, common.CodeMalformedResponse)
}

func TestProcessDirectory_RejectsBadInput(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)

	_, _, err := h.proc.ProcessDirectory(context.Background(), t.TempDir(), "fax", false)
	assert.ErrorIs(t, err, common.ErrUnsupportedType)

	_, _, err = h.proc.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), "invoice", false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProcessDirectory_StopsOnCancel(t *testing.T) {
	h := newHarness(t, acmeText, acmeJSON)
	root := t.TempDir()
	writeDoc(t, root, "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stats, err := h.proc.ProcessDirectory(ctx, root, "invoice", false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Matched)
}
