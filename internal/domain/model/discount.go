package model

import "time"

type DiscountKind string

const (
	DiscountKindPercent DiscountKind = "PERCENT"
	DiscountKindFixed   DiscountKind = "FIXED"
)

// クーポン。
// 注文に適用した内容は注文側にスナップショットされ、
// 後からクーポンを編集・失効しても過去の注文には影響しない。
type Discount struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string       `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Kind          DiscountKind `gorm:"type:varchar(20);not null" json:"kind"`
	Value         int64        `gorm:"not null" json:"value"`
	MinOrderValue int64        `gorm:"not null;default:0" json:"min_order_value"`
	StartsAt      time.Time    `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time    `gorm:"not null" json:"ends_at"`
	RemainingUses int64        `gorm:"not null" json:"remaining_uses"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文金額に対する割引額を計算する。
func (d Discount) AmountFor(subtotal int64) int64 {
	var amount int64
	switch d.Kind {
	case DiscountKindPercent:
		amount = subtotal * d.Value / 100
	case DiscountKindFixed:
		amount = d.Value
	}
	if amount > subtotal {
		amount = subtotal
	}
	return amount
}

// 今このクーポンをこの小計に使えるか。
func (d Discount) UsableAt(now time.Time, subtotal int64) bool {
	if !d.IsActive {
		return false
	}
	if now.Before(d.StartsAt) || now.After(d.EndsAt) {
		return false
	}
	if d.RemainingUses <= 0 {
		return false
	}
	return subtotal >= d.MinOrderValue
}
