package model

// ProjectDoc is the parsed description document of an uploaded project.
type ProjectDoc struct {
	Title   string
	Headers []string // h1-h3 texts in document order.
	Content string   // Paragraph and list-item text joined by newlines.
}

// Checklist is the parsed checklist document of an uploaded project.
type Checklist struct {
	Title string
	Items []string // List-item texts in document order.
}

// StagedProject is the filesystem-backed representation of an extracted
// archive. Every entry path is relative and guaranteed to resolve under Root.
type StagedProject struct {
	Root    string
	Entries []string // Sorted normalized relative file paths.
}

// ProjectScan is the bounded view of a staged project consumed by both
// review generators: file overview, text samples, and heuristic issues.
type ProjectScan struct {
	Files       []string          // All file paths, relative, sorted.
	TotalBytes  int64             // Sum of file sizes across the tree.
	Samples     map[string]string // Relative path -> clipped file content.
	SampleOrder []string          // Sample keys in deterministic walk order.
	Issues      []string          // Heuristic issue descriptions.
}
