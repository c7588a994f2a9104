// Package extractor turns stored report files into plain text. The
// format is picked by file extension: plain text, PDF, xlsx workbooks,
// and scanned images run through the tesseract OCR binary.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

type Extractor struct {
	storage       ports.ObjectStorage
	tesseractPath string
}

var _ ports.TextExtractor = (*Extractor)(nil)

func New(storage ports.ObjectStorage, tesseractPath string) *Extractor {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	return &Extractor{storage: storage, tesseractPath: tesseractPath}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(doc.Filename))
	switch ext {
	case ".txt":
		return extractPlainText(raw, doc.Filename)
	case ".pdf":
		return extractPDF(raw)
	case ".xlsx":
		return extractWorkbook(raw)
	case ".png", ".jpg", ".jpeg":
		return e.extractImage(ctx, raw, ext)
	default:
		return "", fmt.Errorf("unsupported file type %q: %s", ext, doc.Filename)
	}
}

func extractPlainText(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file is not valid utf-8 text: %s", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}

func extractPDF(raw []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

// extractWorkbook flattens every sheet row into a tab-separated line so
// the lab table patterns see test name, value, and unit on one line.
func extractWorkbook(raw []byte) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var sb strings.Builder
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// extractImage shells out to tesseract. The image is written to a temp
// file because tesseract reads its input from disk.
func (e *Extractor) extractImage(ctx context.Context, raw []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "report-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp image: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.tesseractPath, tmp.Name(), "stdout")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run ocr: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
