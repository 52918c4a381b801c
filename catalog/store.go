package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pricefy/repricing/schema"
)

// Sentinel store errors.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// ProductStore manages product persistence. List applies the validated
// query (filter, sort, pagination) and returns the total match count
// alongside the page.
type ProductStore interface {
	Add(p *Product) error
	Get(id string) (*Product, error)
	List(q schema.Query) ([]*Product, int, error)
	Update(id string, u schema.ProductUpdate) (*Product, error)
	BulkUpdate(ids []string, u schema.ProductUpdate) (int, error)
	Delete(id string) error
}

// applyUpdate copies the set fields of u onto p.
func applyUpdate(p *Product, u schema.ProductUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Cost != nil {
		p.Cost = *u.Cost
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Margin != nil {
		p.Margin = *u.Margin
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.CheapestColor != nil {
		p.CheapestColor = *u.CheapestColor
	}
	p.UpdatedAt = time.Now()
}

// InMemoryProductStore implements ProductStore with an in-memory map.
// Thread-safe with RWMutex.
type InMemoryProductStore struct {
	products map[string]*Product
	mu       sync.RWMutex
}

// NewInMemoryProductStore creates a new in-memory product store.
func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		products: make(map[string]*Product),
	}
}

// Add adds a new product and sets its timestamps.
func (s *InMemoryProductStore) Add(p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product with ID %s %w", p.ID, ErrExists)
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	s.products[p.ID] = &stored
	return nil
}

// Get retrieves a product by ID.
func (s *InMemoryProductStore) Get(id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s %w", id, ErrNotFound)
	}
	out := *p
	return &out, nil
}

// List filters, sorts, and paginates the catalog per the validated query.
func (s *InMemoryProductStore) List(q schema.Query) ([]*Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Product
	search := strings.ToLower(q.Search)
	for _, p := range s.products {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		out := *p
		matched = append(matched, &out)
	}

	sortProducts(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []*Product{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Update applies a partial update to one product.
func (s *InMemoryProductStore) Update(id string, u schema.ProductUpdate) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s %w", id, ErrNotFound)
	}
	applyUpdate(p, u)
	out := *p
	return &out, nil
}

// BulkUpdate applies a partial update to every listed product and returns
// the number of products changed. Unknown IDs are skipped, not errors: the
// grid may submit rows deleted by another session.
func (s *InMemoryProductStore) BulkUpdate(ids []string, u schema.ProductUpdate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		if p, exists := s.products[id]; exists {
			applyUpdate(p, u)
			updated++
		}
	}
	return updated, nil
}

// Delete removes a product.
func (s *InMemoryProductStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return fmt.Errorf("product %s %w", id, ErrNotFound)
	}
	delete(s.products, id)
	return nil
}

func sortProducts(products []*Product, sortBy, sortOrder string) {
	less := func(a, b *Product) bool {
		switch sortBy {
		case "name":
			return a.Name < b.Name
		case "price":
			return a.Price < b.Price
		case "stock":
			return a.Stock < b.Stock
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default: // createdAt
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if sortOrder == "asc" {
			return less(products[i], products[j])
		}
		return less(products[j], products[i])
	})
}
