package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"inventory-api/internal/domain"
)

// MemoryProductRepository keeps the catalog in process memory. Writers are
// serialized by the lock; readers only ever see whole copies.
type MemoryProductRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Product
}

// NewMemoryProductRepository creates an empty in-memory catalog
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		byID: make(map[string]*domain.Product),
	}
}

// Create appends a product to the catalog
func (r *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate id %q", product.ID)
	}

	r.byID[product.ID] = product.Clone()
	r.order = append(r.order, product.ID)
	return nil
}

// FindByID retrieves a copy of a product
func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return product.Clone(), nil
}

// Update applies mutate to a working copy and swaps it in on success
func (r *MemoryProductRepository) Update(_ context.Context, id string, mutate MutateFunc) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.OwnerID = current.OwnerID

	r.byID[id] = next
	return next.Clone(), nil
}

// Delete removes a product after check approves it
func (r *MemoryProductRepository) Delete(_ context.Context, id string, check MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return ErrProductNotFound
	}
	if check != nil {
		if err := check(current.Clone()); err != nil {
			return err
		}
	}

	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Search filters by manufacturer, model or type and slices the result
func (r *MemoryProductRepository) Search(_ context.Context, query string, offset, limit int) ([]*domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		product := r.byID[id]
		if matchesQuery(product, needle) {
			matches = append(matches, product)
		}
	}

	total := len(matches)
	if offset < 0 || offset >= total || limit <= 0 {
		return []*domain.Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*domain.Product, 0, end-offset)
	for _, product := range matches[offset:end] {
		page = append(page, product.Clone())
	}
	return page, total, nil
}

// All returns a snapshot of the whole catalog in insertion order
func (r *MemoryProductRepository) All(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, r.byID[id].Clone())
	}
	return products, nil
}

func matchesQuery(p *domain.Product, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Manufacturer), needle) ||
		strings.Contains(strings.ToLower(p.Model), needle) ||
		strings.Contains(strings.ToLower(p.Type), needle)
}
