package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine persists one book-and-quantity entry of a session cart.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:cart_lines_user_book_key,priority:1"`
	BookID    int64     `gorm:"column:book_id;not null;uniqueIndex:cart_lines_user_book_key,priority:2"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Book      *Book     `gorm:"foreignKey:BookID;references:ID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the server-side line id.
func (l *CartLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
