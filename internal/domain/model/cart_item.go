package model

import "time"

// カートの明細。
// (product, variant) の組で1行。同じ組の再追加は数量加算。
// 追加時点の価格・容量ラベルを必ずスナップショットする。
type CartItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID              int64     `gorm:"not null;index" json:"cart_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	VariantID           int64     `gorm:"not null;index" json:"variant_id"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot   int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	VolumeSnapshot      string    `gorm:"type:varchar(50)" json:"volume_snapshot"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
