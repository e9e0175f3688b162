// Package loader fetches a document by URL or local path and extracts plain
// text plus basic metadata. The pipeline itself only ever sees the text.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"docqa/internal/models"
)

// ErrUnavailable covers fetch and parse failures, including documents whose
// extraction yields no usable text.
var ErrUnavailable = errors.New("document unavailable")

const maxDocumentBytes = 50 << 20

type Loader struct {
	client *http.Client
}

func New() *Loader {
	return &Loader{client: &http.Client{Timeout: 60 * time.Second}}
}

// Load resolves ref (http(s) URL or local path) and extracts its text.
func (l *Loader) Load(ctx context.Context, ref string) (models.Document, error) {
	var (
		filePath string
		cleanup  func()
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		tmp, err := l.download(ctx, ref)
		if err != nil {
			return models.Document{}, err
		}
		filePath = tmp
		cleanup = func() { os.Remove(tmp) }
	} else {
		filePath = strings.TrimPrefix(ref, "file://")
		if _, err := os.Stat(filePath); err != nil {
			return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if cleanup != nil {
		defer cleanup()
	}

	doc, err := extract(filePath)
	if err != nil {
		return models.Document{}, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return models.Document{}, fmt.Errorf("%w: no text extracted from %s", ErrUnavailable, ref)
	}

	base := path.Base(strings.SplitN(ref, "?", 2)[0])
	doc.Title = strings.TrimSuffix(base, path.Ext(base))
	log.Debug().Str("ref", ref).Int("chars", len(doc.Text)).Int("pages", doc.PageCount).Msg("document loaded")
	return doc, nil
}

// download fetches a remote document to a temp file, preserving the URL's
// extension so extraction can dispatch on it.
func (l *Loader) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetching %s: status %d", ErrUnavailable, url, resp.StatusCode)
	}

	ext := path.Ext(strings.SplitN(path.Base(url), "?", 2)[0])
	tmp, err := os.CreateTemp("", "docqa-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDocumentBytes)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tmp.Name(), nil
}

func extract(filePath string) (models.Document, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	case ".xlsx":
		return extractXLSX(filePath)
	case ".ods":
		return extractODS(filePath)
	case ".md", ".markdown":
		return extractMarkdown(filePath)
	default:
		data, err := os.ReadFile(filePath)
		if err != nil {
			return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return models.Document{Text: string(data), PageCount: 1}, nil
	}
}

func extractPDF(filePath string) (models.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return models.Document{}, fmt.Errorf("%w: page %d: %v", ErrUnavailable, i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return models.Document{Text: text.String(), PageCount: numPages}, nil
}

func extractDOCX(filePath string) (models.Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return models.Document{Text: extractTaggedText(content, "<w:t", "</w:t>"), PageCount: 1}, nil
}

func extractXLSX(filePath string) (models.Document, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString("Sheet: " + sheet.Name + "\n")
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return models.Document{Text: text.String(), PageCount: len(f.Sheets)}, nil
}

func extractODS(filePath string) (models.Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	var text strings.Builder
	sheets := f.GetSheetList()
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		text.WriteString("Sheet: " + name + "\n")
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return models.Document{Text: text.String(), PageCount: len(sheets)}, nil
}

// extractTaggedText pulls the text bodies out of XML runs like <w:t>…</w:t>
// without a full XML parse, which is all DOCX body text needs.
func extractTaggedText(content, openTag, closeTag string) string {
	var text strings.Builder
	parts := strings.Split(content, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		start := strings.Index(part, ">")
		if start < 0 {
			continue
		}
		end := strings.Index(part, closeTag)
		if end < 0 || end < start {
			continue
		}
		text.WriteString(part[start+1 : end])
		text.WriteString(" ")
	}
	return text.String()
}
