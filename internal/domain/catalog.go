package domain

import "strings"

// CatalogItem is a bookable travel experience. Immutable once loaded.
type CatalogItem struct {
	ID       int      `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Location string   `json:"location" yaml:"location"`
	Price    float64  `json:"price" yaml:"price"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// EmbeddingText is the text representation fed to the embedder for this item.
func (c CatalogItem) EmbeddingText() string {
	parts := make([]string, 0, 2+len(c.Tags))
	parts = append(parts, c.Title, c.Location)
	parts = append(parts, c.Tags...)
	return strings.Join(parts, " ")
}

// Clone returns a copy that shares no slices with the receiver.
func (c CatalogItem) Clone() CatalogItem {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	return out
}

// RankedMatch is a model-ranked candidate resolved to its catalog item.
type RankedMatch struct {
	ID         int         `json:"id"`
	Reasoning  string      `json:"reasoning"`
	Confidence float64     `json:"confidence"`
	Item       CatalogItem `json:"item"`
}

// SearchResult is the outcome of one ranking request.
type SearchResult struct {
	Matches     []RankedMatch `json:"matches"`
	Explanation string        `json:"explanation"`
}
