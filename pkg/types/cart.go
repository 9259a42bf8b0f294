package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// BookSnapshot is the denormalized subset of catalog fields captured on a cart line.
type BookSnapshot struct {
	Title      string              `json:"title"`
	Author     string              `json:"author"`
	ImageURL   *string             `json:"imageUrl,omitempty"`
	Price      decimal.Decimal     `json:"price"`
	Stock      int                 `json:"stock"`
	Condition  enums.BookCondition `json:"condition"`
	Featured   bool                `json:"featured"`
	Bestseller bool                `json:"bestseller"`
}

// SnapshotOf copies the cart-relevant fields of a catalog record.
func SnapshotOf(b Book) BookSnapshot {
	return BookSnapshot{
		Title:      b.Title,
		Author:     b.Author,
		ImageURL:   b.ImageURL,
		Price:      b.Price,
		Stock:      b.Stock,
		Condition:  b.Condition,
		Featured:   b.Featured,
		Bestseller: b.Bestseller,
	}
}

// CartLineWarning marks a line whose refreshed stock no longer covers its quantity.
type CartLineWarning struct {
	Type    enums.CartLineWarningType `json:"type"`
	Message string                    `json:"message"`
}

// CartLine is the wire shape of a single cart entry, anonymous or session owned.
type CartLine struct {
	ID        string            `json:"id"`
	BookID    int64             `json:"bookId"`
	Book      BookSnapshot      `json:"book"`
	Quantity  int               `json:"quantity"`
	OwnerID   *string           `json:"ownerId"`
	CreatedAt time.Time         `json:"createdAt"`
	Warnings  []CartLineWarning `json:"warnings,omitempty"`
}

// AddCartItemRequest is the body of POST /cart/add.
type AddCartItemRequest struct {
	BookID   int64 `json:"bookId" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"omitempty,gt=0"`
}

// UpdateCartItemRequest is the body of PUT /cart/{lineId}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// StockErrorDetails accompanies OUT_OF_STOCK and STOCK_EXCEEDED errors.
type StockErrorDetails struct {
	BookID    int64 `json:"bookId"`
	Available int   `json:"available"`
	InCart    int   `json:"inCart"`
}
