package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// Book is the catalog record served by GET /books/{id}.
type Book struct {
	ID         int64               `json:"id"`
	Title      string              `json:"title"`
	Author     string              `json:"author"`
	ImageURL   *string             `json:"imageUrl,omitempty"`
	Price      decimal.Decimal     `json:"price"`
	Stock      int                 `json:"stock"`
	Condition  enums.BookCondition `json:"condition"`
	Featured   bool                `json:"featured"`
	Bestseller bool                `json:"bestseller"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}
