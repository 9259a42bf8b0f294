package cart

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// ErrOutOfStock rejects an add for a book with no stock left.
func ErrOutOfStock(bookID int64, inCart int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("book %d is out of stock", bookID)).
		WithDetails(types.StockErrorDetails{BookID: bookID, Available: 0, InCart: inCart})
}

// ErrStockExceeded rejects a quantity above the available stock, naming both
// the limit and what the cart already holds.
func ErrStockExceeded(bookID int64, available, inCart int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStockExceeded, fmt.Sprintf("only %d in stock, %d already in cart", available, inCart)).
		WithDetails(types.StockErrorDetails{BookID: bookID, Available: available, InCart: inCart})
}

// ErrLineNotFound reports an update against a line the cart does not hold.
func ErrLineNotFound(lineID string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line %s not found", lineID))
}

func errInvalidQuantity(quantity int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
		WithDetails(map[string]any{"quantity": quantity})
}
