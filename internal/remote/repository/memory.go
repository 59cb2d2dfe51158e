package repository

import (
	"sort"
	"sync"

	"github.com/almahra/cart-engine/internal/remote/domain"
)

// memoryRepository keeps cart lines in a map, used when no database is
// configured and by the handler tests.
type memoryRepository struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]domain.CartItem
}

// NewMemoryRepository creates an in-memory cart repository
func NewMemoryRepository() domain.CartRepository {
	return &memoryRepository{nextID: 1, items: make(map[uint]domain.CartItem)}
}

func (r *memoryRepository) FindByUser(userID uint) ([]domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []domain.CartItem
	for _, it := range r.items {
		if it.UserID == userID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memoryRepository) FindLine(userID, productID uint, variantID *uint) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range r.items {
		if it.UserID != userID || it.ProductID != productID {
			continue
		}
		if variantID == nil && it.VariantID == nil {
			line := it
			return &line, nil
		}
		if variantID != nil && it.VariantID != nil && *variantID == *it.VariantID {
			line := it
			return &line, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) Save(item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		item.ID = r.nextID
		r.nextID++
	}
	r.items[item.ID] = *item
	return nil
}

func (r *memoryRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	return nil
}

func (r *memoryRepository) ClearUser(userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, it := range r.items {
		if it.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *memoryRepository) CountByUser(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, it := range r.items {
		if it.UserID == userID {
			count++
		}
	}
	return count, nil
}
