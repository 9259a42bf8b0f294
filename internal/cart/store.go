package cart

import (
	"context"
	"strings"

	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// Line is one book-and-quantity entry of a cart.
type Line = types.CartLine

// Store is the cart contract shared by the anonymous and session implementations.
type Store interface {
	List(ctx context.Context) ([]Line, error)
	Add(ctx context.Context, bookID int64, quantity int) (Line, error)
	Update(ctx context.Context, lineID string, quantity int) (Line, error)
	Remove(ctx context.Context, lineID string) error
	Clear(ctx context.Context) error
}

// Inventory reads the current catalog record of a book.
type Inventory interface {
	GetBook(ctx context.Context, id int64) (types.Book, error)
}

// Identity describes who a storefront request acts for.
type Identity struct {
	GuestID string
	UserID  string
	Token   string
	LoginID string
}

// Authenticated reports whether the request carries a verified session.
func (i Identity) Authenticated() bool {
	return strings.TrimSpace(i.UserID) != "" && i.Token != ""
}

func indexOfBook(lines []Line, bookID int64) int {
	for i := range lines {
		if lines[i].BookID == bookID {
			return i
		}
	}
	return -1
}

func indexOfLine(lines []Line, lineID string) int {
	for i := range lines {
		if lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
