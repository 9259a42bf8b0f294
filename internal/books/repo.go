package books

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository reads catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a book repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID returns the book row or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}
