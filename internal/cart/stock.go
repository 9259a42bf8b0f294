package cart

import (
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// CheckAdd validates adding quantity copies of book to a cart that already
// holds inCart of them. It never clamps: a violation is returned as an error.
func CheckAdd(book types.Book, inCart, quantity int) error {
	if quantity <= 0 {
		return errInvalidQuantity(quantity)
	}
	if book.Stock <= 0 {
		return ErrOutOfStock(book.ID, inCart)
	}
	if inCart+quantity > book.Stock {
		return ErrStockExceeded(book.ID, book.Stock, inCart)
	}
	return nil
}

// CheckQuantity validates setting a line to quantity against stock.
func CheckQuantity(bookID int64, stock, quantity, inCart int) error {
	if quantity <= 0 {
		return errInvalidQuantity(quantity)
	}
	if quantity > stock {
		return ErrStockExceeded(bookID, stock, inCart)
	}
	return nil
}

// StockWarnings flags a line whose snapshot stock no longer covers its quantity.
func StockWarnings(line types.CartLine) []types.CartLineWarning {
	switch {
	case line.Book.Stock <= 0:
		return []types.CartLineWarning{{Type: enums.CartLineWarningOutOfStock, Message: "this book is no longer in stock"}}
	case line.Quantity > line.Book.Stock:
		return []types.CartLineWarning{{Type: enums.CartLineWarningStockBelowCart, Message: "fewer copies are in stock than are in your cart"}}
	}
	return nil
}
