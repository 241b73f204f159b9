// Package catalog provides the static, read-only travel catalog.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/travelscout/internal/domain"
)

// ErrInvalidCatalog signals a catalog file that breaks item invariants.
var ErrInvalidCatalog = errors.New("invalid catalog")

var reference = []domain.CatalogItem{
	{ID: 1, Title: "High-Altitude Tea Trails", Location: "Nuwara Eliya", Price: 120, Tags: []string{"cold", "nature", "hiking"}},
	{ID: 2, Title: "Coastal Heritage Wander", Location: "Galle Fort", Price: 45, Tags: []string{"history", "culture", "walking"}},
	{ID: 3, Title: "Wild Safari Expedition", Location: "Yala", Price: 250, Tags: []string{"animals", "adventure", "photography"}},
	{ID: 4, Title: "Surf & Chill Retreat", Location: "Arugam Bay", Price: 80, Tags: []string{"beach", "surfing", "young-vibe"}},
	{ID: 5, Title: "Ancient City Exploration", Location: "Sigiriya", Price: 110, Tags: []string{"history", "climbing", "view"}},
}

// Reference returns a copy of the built-in five item catalog.
func Reference() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(reference))
	for i, item := range reference {
		out[i] = item.Clone()
	}
	return out
}

// Load returns the catalog at path, or the reference catalog when path is empty.
func Load(path string) ([]domain.CatalogItem, error) {
	if path == "" {
		return Reference(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML list of catalog items, preserving file order.
func LoadFile(path string) ([]domain.CatalogItem, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := Validate(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Validate checks that ids are unique and positive, titles are set and prices are non-negative.
func Validate(items []domain.CatalogItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalidCatalog)
	}
	seen := make(map[int]struct{}, len(items))
	for i, item := range items {
		if item.ID <= 0 {
			return fmt.Errorf("%w: item %d: id must be positive, got %d", ErrInvalidCatalog, i, item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: item %d: duplicate id %d", ErrInvalidCatalog, i, item.ID)
		}
		seen[item.ID] = struct{}{}
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: item %d (id %d): title is required", ErrInvalidCatalog, i, item.ID)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %d (id %d): price must be >= 0, got %v", ErrInvalidCatalog, i, item.ID, item.Price)
		}
	}
	return nil
}
