package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"queryly/internal/config"
	"queryly/internal/domain"
	"queryly/internal/logger"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/unidoc/unioffice/document"
	"go.uber.org/zap"
)

const (
	extPDF  = ".pdf"
	extDOCX = ".docx"
	extTXT  = ".txt"
)

// DocumentIngestor extracts plain text from .pdf, .docx and .txt uploads.
// Each upload is spooled to a temporary file that is removed before Ingest returns.
type DocumentIngestor struct {
	maxBytes int64
	tempDir  string
}

func NewDocumentIngestor(cfg config.UploadConfig) *DocumentIngestor {
	return &DocumentIngestor{maxBytes: cfg.MaxBytes, tempDir: cfg.TempDir}
}

// SupportedExtension reports whether fileName has a suffix Ingest can parse.
func SupportedExtension(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case extPDF, extDOCX, extTXT:
		return true
	}
	return false
}

func (d *DocumentIngestor) Ingest(ctx context.Context, r io.Reader, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !SupportedExtension(fileName) {
		return "", domain.NewUnsupportedFormatError(fileName)
	}
	if r == nil {
		return "", domain.NewInvalidInputError("file content is required")
	}

	path, size, err := d.spool(r, ext)
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Get().Warn("Failed to remove temporary upload", zap.String("path", path), zap.Error(rmErr))
			}
		}()
	}
	if err != nil {
		return "", err
	}

	var text string
	switch ext {
	case extPDF:
		text, err = loadPDF(ctx, path, size)
	case extDOCX:
		text, err = loadDOCX(path)
	case extTXT:
		text, err = loadText(ctx, path)
	}
	if err != nil {
		logger.Get().Warn("Failed to parse uploaded document", zap.String("fileName", fileName), zap.Error(err))
		return "", domain.NewInvalidInputError(fmt.Sprintf("could not read %s: %v", fileName, err))
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.NewInvalidInputError(fmt.Sprintf("document %s contains no text", fileName))
	}

	logger.Get().Debug("Document ingested",
		zap.String("fileName", fileName),
		zap.Int64("bytes", size),
		zap.Int("chars", len(text)))
	return text, nil
}

// spool copies r to a temporary file carrying ext. The returned path is set
// whenever a file was created, even if copying failed.
func (d *DocumentIngestor) spool(r io.Reader, ext string) (string, int64, error) {
	f, err := os.CreateTemp(d.tempDir, "queryly-upload-*"+ext)
	if err != nil {
		return "", 0, domain.NewInternalError("failed to create temporary file", err)
	}
	path := f.Name()
	defer f.Close()

	src := r
	if d.maxBytes > 0 {
		src = io.LimitReader(r, d.maxBytes+1)
	}
	size, err := io.Copy(f, src)
	if err != nil {
		return path, size, domain.NewInvalidInputError(fmt.Sprintf("failed to read upload: %v", err))
	}
	if d.maxBytes > 0 && size > d.maxBytes {
		return path, size, domain.NewInvalidInputError(fmt.Sprintf("upload exceeds the %d byte limit", d.maxBytes))
	}
	if err := f.Sync(); err != nil {
		return path, size, domain.NewInternalError("failed to flush temporary file", err)
	}
	return path, size, nil
}

func loadPDF(ctx context.Context, path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	docs, err := documentloaders.NewPDF(f, size).Load(ctx)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs), nil
}

func loadText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs), nil
}

func loadDOCX(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var lines []string
	for _, p := range doc.Paragraphs() {
		lines = append(lines, paragraphText(p))
	}
	for _, tbl := range doc.Tables() {
		for _, row := range tbl.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var parts []string
				for _, p := range cell.Paragraphs() {
					parts = append(parts, paragraphText(p))
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func paragraphText(p document.Paragraph) string {
	var sb strings.Builder
	for _, run := range p.Runs() {
		sb.WriteString(run.Text())
	}
	return sb.String()
}

func joinDocuments(docs []schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.PageContent)
	}
	return strings.Join(parts, "\n")
}
