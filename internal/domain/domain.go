// Package domain holds the core types shared across the ingestion and
// query pipelines.
package domain

// DocumentChunk is one embeddable unit of an ingested document.
// Immutable after creation; IDs are content-derived so re-ingesting
// identical content overwrites instead of duplicating.
type DocumentChunk struct {
	ID      string
	Content string
	Source  string
}

// CollectionInfo describes a vector store collection.
type CollectionInfo struct {
	PointsCount int
}

// Answer is the outcome of a retrieval-augmented query: the generated
// text plus the distinct sources of the chunks that grounded it.
type Answer struct {
	Text    string
	Sources []string
}
