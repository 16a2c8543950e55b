package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

// InventoryItem is a stock record. The index never mutates items; catalog
// maintenance happens in an external process that rewrites the backing file.
type InventoryItem struct {
	SKU      string  `json:"sku"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

const maxLookupResults = 10

// InventoryIndex serves case-insensitive lookups over an immutable snapshot
// of the catalog. Reload swaps the whole snapshot atomically, so concurrent
// lookups see either the old or the new catalog, never a mix.
type InventoryIndex struct {
	path     string
	snapshot atomic.Pointer[[]InventoryItem]
}

func OpenInventoryIndex(path string) (*InventoryIndex, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: inventory path is empty", contractx.ErrValidation)
	}
	idx := &InventoryIndex{path: path}
	if err := idx.Reload(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Reload re-reads the backing file and replaces the snapshot.
func (idx *InventoryIndex) Reload() error {
	raw, err := os.ReadFile(idx.path)
	if os.IsNotExist(err) {
		empty := []InventoryItem{}
		idx.snapshot.Store(&empty)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read inventory: %v", contractx.ErrStoreIO, err)
	}

	var items []InventoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: decode inventory: %v", contractx.ErrStoreIO, err)
	}
	idx.snapshot.Store(&items)
	return nil
}

// Lookup scores items by case-insensitive substring match of the query terms
// against sku, model, and brand (sku weighs heaviest), mirroring how the
// catalog is usually referenced in chat ("BrandA A123"). An empty result is
// a normal outcome, not an error.
func (idx *InventoryIndex) Lookup(query string) []InventoryItem {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return []InventoryItem{}
	}

	items := *idx.snapshot.Load()

	type scored struct {
		score int
		item  InventoryItem
	}
	matches := make([]scored, 0, len(items))
	for _, item := range items {
		s := scoreItem(item, terms)
		if s > 0 {
			matches = append(matches, scored{score: s, item: item})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxLookupResults {
		matches = matches[:maxLookupResults]
	}

	out := make([]InventoryItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.item)
	}
	return out
}

// Len reports the snapshot size.
func (idx *InventoryIndex) Len() int {
	return len(*idx.snapshot.Load())
}

func scoreItem(item InventoryItem, terms []string) int {
	sku := strings.ToLower(item.SKU)
	model := strings.ToLower(item.Model)
	brand := strings.ToLower(item.Brand)

	score := 0
	for _, t := range terms {
		if strings.Contains(sku, t) {
			score += 4
		}
		if strings.Contains(model, t) {
			score += 3
		}
		if strings.Contains(brand, t) {
			score += 2
		}
	}
	return score
}

func splitTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
