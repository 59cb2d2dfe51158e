package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/almahra/cart-engine/internal/remote/domain"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository backed by gorm
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUser(userID uint) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *cartRepository) FindLine(userID, productID uint, variantID *uint) (*domain.CartItem, error) {
	var item domain.CartItem
	q := r.db.Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID != nil {
		q = q.Where("variant_id = ?", *variantID)
	} else {
		q = q.Where("variant_id IS NULL")
	}
	if err := q.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) Save(item *domain.CartItem) error {
	return r.db.Save(item).Error
}

func (r *cartRepository) Delete(id uint) error {
	return r.db.Delete(&domain.CartItem{}, id).Error
}

func (r *cartRepository) ClearUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}

func (r *cartRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.CartItem{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
