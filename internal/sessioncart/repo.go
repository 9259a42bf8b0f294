package sessioncart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository persists session cart lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the user's lines with their books, oldest first.
func (r *Repository) List(ctx context.Context, userID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

// FindByBook returns the user's line for a book, or gorm.ErrRecordNotFound.
func (r *Repository) FindByBook(tx *gorm.DB, userID string, bookID int64) (*models.CartLine, error) {
	var line models.CartLine
	if err := tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByID returns the user's line, or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(tx *gorm.DB, userID string, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := tx.Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) FindBook(tx *gorm.DB, bookID int64) (*models.Book, error) {
	var book models.Book
	if err := tx.First(&book, "id = ?", bookID).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) Create(tx *gorm.DB, line *models.CartLine) error {
	return tx.Omit("Book").Create(line).Error
}

func (r *Repository) UpdateQuantity(tx *gorm.DB, line *models.CartLine, quantity int) error {
	if err := tx.Model(line).Update("quantity", quantity).Error; err != nil {
		return err
	}
	line.Quantity = quantity
	return nil
}

// Delete removes one line; a missing line is not an error.
func (r *Repository) Delete(ctx context.Context, userID string, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartLine{}).Error
}

// DeleteAll empties the user's cart.
func (r *Repository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}
