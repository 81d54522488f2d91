package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mike-a-ellis/docqa/internal/chunker"
)

// Processor turns files on disk into annotated chunks. Dispatch is by file
// extension; .pdf, .txt and .md are supported.
type Processor struct {
	splitter *chunker.Splitter
	logger   *slog.Logger
}

// NewProcessor creates a Processor that chunks extracted text with the given
// splitter.
func NewProcessor(splitter *chunker.Splitter, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		splitter: splitter,
		logger:   logger,
	}
}

// ProcessFile extracts text from the file at path and splits it into chunks.
// Returns ErrUnsupportedType for extensions other than .pdf, .txt and .md.
// Read or parse failures are returned to the caller; isolation across a batch
// of files is the caller's concern.
func (p *Processor) ProcessFile(path string) ([]Chunk, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.processPDF(path)
	case ".txt":
		return p.processText(path, TypeText)
	case ".md":
		return p.processText(path, TypeMarkdown)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
}

// ProcessDirectory processes every supported file directly under dir,
// concatenating all resulting chunks. A file that fails to process is logged
// and skipped; it does not abort the batch.
func (p *Processor) ProcessDirectory(dir string) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var all []Chunk
	for _, entry := range entries {
		if entry.IsDir() || !SupportedExtension(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		chunks, err := p.ProcessFile(path)
		if err != nil {
			p.logger.Warn("Failed to process file", "path", path, "error", err)
			continue
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// SupportedExtension reports whether the file name has an ingestible
// extension.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// processPDF extracts plain text per page, joins pages with newlines and
// chunks the concatenated text. Page boundaries are not chunk boundaries;
// the page count is recorded in metadata instead.
func (p *Processor) processPDF(path string) ([]Chunk, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := reader.NumPage()
	var sb strings.Builder
	for n := 1; n <= pages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("Failed to extract page text", "path", path, "page", n, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	meta := Metadata{
		Source: path,
		Type:   TypePDF,
		Pages:  pages,
	}
	return p.annotate(sb.String(), meta), nil
}

// processText reads the whole file and chunks it directly. Markdown is tagged
// distinctly and gets a title from its first heading, but is not otherwise
// parsed; headings and code fences do not affect chunk boundaries.
func (p *Processor) processText(path string, typ FileType) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	meta := Metadata{
		Source: path,
		Type:   typ,
	}
	if typ == TypeMarkdown {
		meta.Title = markdownTitle(data)
	}
	return p.annotate(string(data), meta), nil
}

// annotate splits text and stamps each chunk with positional metadata.
func (p *Processor) annotate(text string, meta Metadata) []Chunk {
	pieces := p.splitter.Split(text)
	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		m := meta
		m.Index = i
		m.Total = len(pieces)
		chunks = append(chunks, Chunk{Content: piece, Metadata: m})
	}
	return chunks
}
