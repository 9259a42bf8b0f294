package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// Book is the catalog row read by the inventory lookup.
type Book struct {
	ID         int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Title      string              `gorm:"column:title;not null"`
	Author     string              `gorm:"column:author;not null"`
	ImageURL   *string             `gorm:"column:image_url"`
	Price      decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock      int                 `gorm:"column:stock;not null;default:0"`
	Condition  enums.BookCondition `gorm:"column:condition;type:varchar(16);not null;default:'new'"`
	Featured   bool                `gorm:"column:featured;not null;default:false"`
	Bestseller bool                `gorm:"column:bestseller;not null;default:false"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
