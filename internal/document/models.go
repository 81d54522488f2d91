package document

// FileType identifies the source format of a chunk.
type FileType string

const (
	TypePDF      FileType = "pdf"
	TypeText     FileType = "text"
	TypeMarkdown FileType = "markdown"
)

// Metadata carries enough information to trace a chunk back to its
// originating file and position within it.
type Metadata struct {
	Source string   `json:"source"`          // Path of the originating file
	Type   FileType `json:"type"`            // Source format
	Index  int      `json:"chunk_index"`     // Chunk position within the file (0, 1, 2...)
	Total  int      `json:"chunk_total"`     // Total chunks produced from the file
	Pages  int      `json:"pages,omitempty"` // Page count for PDF sources, 0 otherwise
	Title  string   `json:"title,omitempty"` // First heading for markdown sources, "" otherwise
}

// Chunk is a bounded-length piece of a source document. Chunks are immutable
// once created by the Processor.
type Chunk struct {
	Content  string
	Metadata Metadata
}
