package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type bookReader interface {
	FindByID(ctx context.Context, id int64) (*models.Book, error)
}

// Service serves the catalog read model.
type Service interface {
	GetBook(ctx context.Context, id int64) (types.Book, error)
}

type service struct {
	repo bookReader
}

// NewService builds the catalog service.
func NewService(repo bookReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("book repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetBook(ctx context.Context, id int64) (types.Book, error) {
	if id <= 0 {
		return types.Book{}, pkgerrors.New(pkgerrors.CodeValidation, "book id must be positive")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Book{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("book %d not found", id))
		}
		return types.Book{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	return ToDTO(row), nil
}

// ToDTO maps a catalog row to its wire shape.
func ToDTO(row *models.Book) types.Book {
	return types.Book{
		ID:         row.ID,
		Title:      row.Title,
		Author:     row.Author,
		ImageURL:   row.ImageURL,
		Price:      row.Price,
		Stock:      row.Stock,
		Condition:  row.Condition,
		Featured:   row.Featured,
		Bestseller: row.Bestseller,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
