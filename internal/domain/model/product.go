package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品。カタログCRUDは別システムで、ここは読み取りのみ。
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// 商品バリアント（容量違いなど）。価格と在庫はバリアント単位。
type ProductVariant struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64          `gorm:"not null;index" json:"product_id"`
	Volume    string         `gorm:"type:varchar(50)" json:"volume"`
	Price     int64          `gorm:"not null" json:"price"`
	Stock     int64          `gorm:"not null" json:"stock"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
