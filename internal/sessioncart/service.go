package sessioncart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/internal/books"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const uniqueLineConstraint = "cart_lines_user_book_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the server-resident cart of authenticated users. Stock is
// validated against the live catalog row on every add and update.
type Service interface {
	List(ctx context.Context, userID string) ([]types.CartLine, error)
	Add(ctx context.Context, userID string, bookID int64, quantity int) (types.CartLine, error)
	Update(ctx context.Context, userID, lineID string, quantity int) (types.CartLine, error)
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart line repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]types.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	out := make([]types.CartLine, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// Add bumps the user's line for bookID or creates it.
func (s *service) Add(ctx context.Context, userID string, bookID int64, quantity int) (types.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return types.CartLine{}, err
	}
	if bookID <= 0 {
		return types.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "book id must be positive")
	}

	var result types.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		book, err := s.loadBook(tx, bookID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindByBook(tx, userID, bookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		inCart := 0
		if existing != nil {
			inCart = existing.Quantity
		}
		if err := cart.CheckAdd(books.ToDTO(book), inCart, quantity); err != nil {
			return err
		}

		if existing != nil {
			if err := s.repo.UpdateQuantity(tx, existing, inCart+quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
			existing.Book = book
			result = toDTO(existing)
			return nil
		}

		line := &models.CartLine{UserID: userID, BookID: bookID, Quantity: quantity}
		if err := s.repo.Create(tx, line); err != nil {
			if db.IsUniqueViolation(err, uniqueLineConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line was added concurrently; retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
		}
		line.Book = book
		result = toDTO(line)
		return nil
	})
	if err != nil {
		return types.CartLine{}, err
	}
	return result, nil
}

// Update sets a line's quantity within the book's live stock.
func (s *service) Update(ctx context.Context, userID, lineID string, quantity int) (types.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return types.CartLine{}, err
	}
	id, err := uuid.Parse(strings.TrimSpace(lineID))
	if err != nil {
		return types.CartLine{}, cart.ErrLineNotFound(lineID)
	}

	var result types.CartLine
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		line, err := s.repo.FindByID(tx, userID, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.ErrLineNotFound(lineID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		book, err := s.loadBook(tx, line.BookID)
		if err != nil {
			return err
		}
		if err := cart.CheckQuantity(line.BookID, book.Stock, quantity, line.Quantity); err != nil {
			return err
		}
		if err := s.repo.UpdateQuantity(tx, line, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		line.Book = book
		result = toDTO(line)
		return nil
	})
	if err != nil {
		return types.CartLine{}, err
	}
	return result, nil
}

// Remove deletes a line; unknown or malformed ids are a no-op.
func (s *service) Remove(ctx context.Context, userID, lineID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(lineID))
	if err != nil {
		return nil
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) loadBook(tx *gorm.DB, bookID int64) (*models.Book, error) {
	book, err := s.repo.FindBook(tx, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("book %d not found", bookID))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	return book, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func toDTO(line *models.CartLine) types.CartLine {
	owner := line.UserID
	out := types.CartLine{
		ID:        line.ID.String(),
		BookID:    line.BookID,
		Quantity:  line.Quantity,
		OwnerID:   &owner,
		CreatedAt: line.CreatedAt,
	}
	if line.Book != nil {
		out.Book = types.SnapshotOf(books.ToDTO(line.Book))
		out.Warnings = cart.StockWarnings(out)
	}
	return out
}
