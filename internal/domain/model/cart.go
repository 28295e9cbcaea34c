package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusMerged     CartStatus = "MERGED"
	CartStatusAbandoned  CartStatus = "ABANDONED"
)

// 会員はuser_id、ゲストはsession_keyで識別する。
// どちらの持ち主でもACTIVEは1つ
type Cart struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64     `gorm:"index" json:"user_id"`
	SessionKey string     `gorm:"type:varchar(64);index" json:"-"`
	Status     CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//チェックアウトの進行状態（CART/ADDRESS/PAYMENT/REVIEW/COMPLETE/CANCELLED）
	CheckoutStep CheckoutStep `gorm:"type:varchar(20);not null;default:'CART'" json:"checkout_step"`

	//addressステップで集めた配送先
	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping"`

	//ゲスト購入者の連絡先
	GuestName  string `gorm:"type:varchar(255)" json:"guest_name"`
	GuestEmail string `gorm:"type:varchar(255)" json:"guest_email"`
	GuestPhone string `gorm:"type:varchar(30)" json:"guest_phone"`

	//paymentステップで選んだ支払い方法とクーポン
	PaymentMethod PaymentMethod `gorm:"type:varchar(20)" json:"payment_method"`
	DiscountCode  string        `gorm:"type:varchar(50)" json:"discount_code"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
