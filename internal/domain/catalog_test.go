package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogItem_EmbeddingText(t *testing.T) {
	item := CatalogItem{ID: 4, Title: "Surf & Chill Retreat", Location: "Arugam Bay",
		Tags: []string{"beach", "surfing"}}
	assert.Equal(t, "Surf & Chill Retreat Arugam Bay beach surfing", item.EmbeddingText())
}

func TestCatalogItem_CloneDetachesTags(t *testing.T) {
	item := CatalogItem{ID: 1, Tags: []string{"a"}}
	c := item.Clone()
	c.Tags[0] = "b"
	assert.Equal(t, "a", item.Tags[0])
}
