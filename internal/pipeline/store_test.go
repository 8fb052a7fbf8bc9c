package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/motorefacciones/import-service/internal/fetch"
	httpclient "github.com/motorefacciones/import-service/internal/http"
	"github.com/motorefacciones/import-service/internal/http/ratelimit"
	"github.com/motorefacciones/import-service/internal/types"
)

// memStore is an in-memory Store and Catalog
type memStore struct {
	mu       sync.Mutex
	batches  map[string]*types.ImportBatch
	items    []*types.ImportItem
	mappings []types.ImageMapping
	products map[string]*types.Product
	variants map[string]*types.ProductVariant
	media    []types.Media

	failInsertItems  error
	failUpsertVariant error
	failInsertMedia  error
	failProductSku   string
	insertItemCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		batches:  make(map[string]*types.ImportBatch),
		products: make(map[string]*types.Product),
		variants: make(map[string]*types.ProductVariant),
	}
}

func (m *memStore) CreateBatch(_ context.Context, batch *types.ImportBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := *batch
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.batches[b.ID] = &b
	return nil
}

func (m *memStore) GetBatch(_ context.Context, id string) (*types.ImportBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, types.ErrNotFound)
	}
	c := *b
	return &c, nil
}

func (m *memStore) UpdateBatch(_ context.Context, id string, u types.BatchUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return fmt.Errorf("batch %s: %w", id, types.ErrNotFound)
	}
	if u.Status != "" {
		b.Status = u.Status
	}
	if u.SourceFilename != nil {
		b.SourceFilename = u.SourceFilename
	}
	if u.FileHash != nil {
		b.FileHash = u.FileHash
	}
	if u.FileType != nil {
		b.FileType = u.FileType
	}
	if u.TotalRows != nil {
		b.TotalRows = *u.TotalRows
	}
	if u.ValidRows != nil {
		b.ValidRows = *u.ValidRows
	}
	if u.FailedRows != nil {
		b.FailedRows = *u.FailedRows
	}
	if u.ErrorText != nil {
		b.ErrorText = u.ErrorText
	}
	return nil
}

func (m *memStore) ClaimCommit(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.Status == types.BatchStatusCommitted || b.CommitStartedAt != nil {
		return false, nil
	}
	now := time.Now()
	b.CommitStartedAt = &now
	return true, nil
}

func (m *memStore) ReleaseCommit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.batches[id]; ok {
		b.CommitStartedAt = nil
	}
	return nil
}

func (m *memStore) MarkCommitted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return types.ErrNotFound
	}
	now := time.Now()
	b.Status = types.BatchStatusCommitted
	b.CommittedAt = &now
	return nil
}

func (m *memStore) InsertItems(_ context.Context, items []types.ImportItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertItemCalls++
	if m.failInsertItems != nil {
		return m.failInsertItems
	}
	for _, it := range items {
		it := it
		m.items = append(m.items, &it)
	}
	return nil
}

func (m *memStore) CountItems(_ context.Context, batchID string) (types.ItemCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c types.ItemCounts
	for _, it := range m.items {
		if it.BatchID != batchID {
			continue
		}
		switch it.Stage {
		case types.ItemStageStaged:
			c.Staged++
		case types.ItemStageFailed:
			c.Failed++
		case types.ItemStageCommitted:
			c.Committed++
		}
	}
	return c, nil
}

func (m *memStore) ListItems(_ context.Context, batchID string, stage types.ItemStage, limit, offset int) ([]types.ImportItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.ImportItem
	for _, it := range m.items {
		if it.BatchID == batchID && it.Stage == stage {
			out = append(out, *it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindCommittedItem(_ context.Context, batchID, providerSku string) (*types.ImportItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.BatchID == batchID && it.ProviderSku == providerSku && it.Stage == types.ItemStageCommitted {
			c := *it
			return &c, nil
		}
	}
	return nil, types.ErrNotFound
}

func (m *memStore) SetItemStage(_ context.Context, itemID string, stage types.ItemStage, errorText *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == itemID {
			it.Stage = stage
			if errorText != nil {
				it.ErrorText = errorText
			}
			return nil
		}
	}
	return types.ErrNotFound
}

func (m *memStore) InsertImageMappings(_ context.Context, mappings []types.ImageMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings = append(m.mappings, mappings...)
	return nil
}

func (m *memStore) ReplaceImageMappings(_ context.Context, batchID string, mappings []types.ImageMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	skus := make(map[string]bool)
	for _, mp := range mappings {
		skus[mp.ProviderSku] = true
	}
	kept := m.mappings[:0]
	for _, mp := range m.mappings {
		if mp.BatchID == batchID && skus[mp.ProviderSku] {
			continue
		}
		kept = append(kept, mp)
	}
	m.mappings = append(kept, mappings...)
	return nil
}

func (m *memStore) ListImageMappings(_ context.Context, batchID string, mapped bool) ([]types.ImageMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.ImageMapping
	for _, mp := range m.mappings {
		if mp.BatchID == batchID && (mp.ProviderSku != "") == mapped {
			out = append(out, mp)
		}
	}
	return out, nil
}

func (m *memStore) FindProductBySku(_ context.Context, sku string) (*types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sku == m.failProductSku {
		return nil, errors.New("connection reset")
	}
	p, ok := m.products[sku]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", sku, types.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (m *memStore) InsertProduct(_ context.Context, p *types.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.Sku]; ok {
		return fmt.Errorf("duplicate sku %s", p.Sku)
	}
	c := *p
	m.products[p.Sku] = &c
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *types.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.Sku]; !ok {
		return types.ErrNotFound
	}
	c := *p
	m.products[p.Sku] = &c
	return nil
}

func (m *memStore) UpsertVariant(_ context.Context, v *types.ProductVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsertVariant != nil {
		return m.failUpsertVariant
	}
	c := *v
	m.variants[v.VariantSku] = &c
	return nil
}

func (m *memStore) MediaExists(_ context.Context, sha256 string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, md := range m.media {
		if md.Sha256 == sha256 {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MaxMediaSort(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maxSort := 0
	for _, md := range m.media {
		if md.ProductID == productID && md.Sort > maxSort {
			maxSort = md.Sort
		}
	}
	return maxSort, nil
}

func (m *memStore) InsertMedia(_ context.Context, md *types.Media) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertMedia != nil {
		return false, m.failInsertMedia
	}
	m.media = append(m.media, *md)
	return true, nil
}

func (m *memStore) itemsByStage(batchID string, stage types.ItemStage) []types.ImportItem {
	items, _ := m.ListItems(context.Background(), batchID, stage, 0, 0)
	return items
}

// fakeDownloader serves files from memory
type fakeDownloader struct {
	files map[string][]byte
}

func (d *fakeDownloader) Download(_ context.Context, url string) (*fetch.File, error) {
	content, ok := d.files[url]
	if !ok {
		return nil, &ratelimit.FetchRetryError{URL: url, Attempts: 1, LastStatus: http.StatusNotFound}
	}
	return &fetch.File{
		URL:      url,
		Filename: fetch.FilenameFromURL(url),
		Content:  content,
		Sha256:   httpclient.ComputeSha256(content),
	}, nil
}
