package model

import "time"

// 支払い軸のステータス。
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// 支払い方法。
type PaymentMethod string

const (
	PaymentMethodMomo PaymentMethod = "MOMO"
	PaymentMethodCOD  PaymentMethod = "COD"
)

// 配送軸のステータスID。
const (
	OrderStatusProcessing     int64 = 1
	OrderStatusShipping       int64 = 2
	OrderStatusDelivered      int64 = 3
	OrderStatusCancelled      int64 = 4
	OrderStatusDeliveryFailed int64 = 5
)

// 支払い軸の遷移表。ここに無い辺は全て禁止
// （FAILED→PAIDは新しいPaymentを起こす。古いものを復活させない）。
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// 配送軸の遷移表。
// CANCELLEDはProcessing/Shippingからのみ。DeliveryFailedはShippingからのみ。
var orderStatusTransitions = map[int64][]int64{
	OrderStatusProcessing: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:   {OrderStatusDelivered, OrderStatusCancelled, OrderStatusDeliveryFailed},
}

func CanTransitPaymentStatus(from PaymentStatus, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitOrderStatus(from int64, to int64) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// 配送軸の表示名。
func OrderStatusName(id int64) string {
	switch id {
	case OrderStatusProcessing:
		return "PROCESSING"
	case OrderStatusShipping:
		return "SHIPPING"
	case OrderStatusDelivered:
		return "DELIVERED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusDeliveryFailed:
		return "DELIVERY_FAILED"
	default:
		return "UNKNOWN"
	}
}

// 配送先（cartとorderで共用する埋め込み）
type ShippingAddress struct {
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	Province   string `gorm:"type:varchar(100)" json:"province"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// 配送先が揃っているか（address→paymentのガード用）
func (a ShippingAddress) Complete() bool {
	return a.Name != "" && a.Phone != "" && a.Line1 != "" && a.City != "" && a.Province != ""
}

// 注文。
// total_amountは作成時に確定し、以後は再計算しない
// （コールバック金額の照合に使うため）。削除はステータスで表し、行は消さない。
type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//会員注文ならuser_id、ゲスト注文ならnil＋ゲスト連絡先
	UserID     *int64 `gorm:"index" json:"user_id"`
	GuestName  string `gorm:"type:varchar(255)" json:"guest_name"`
	GuestEmail string `gorm:"type:varchar(255);index" json:"guest_email"`
	GuestPhone string `gorm:"type:varchar(30)" json:"guest_phone"`

	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping"`

	//total = subtotal - discount + shipping（負にはならない）
	SubtotalAmount int64 `gorm:"not null" json:"subtotal_amount"`
	DiscountAmount int64 `gorm:"not null;default:0" json:"discount_amount"`
	ShippingFee    int64 `gorm:"not null;default:0" json:"shipping_fee"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	OrderStatusID int64         `gorm:"not null;index" json:"order_status_id"`

	//注文時点のクーポンのスナップショット（後でクーポンが変わっても不変）
	DiscountCode string `gorm:"type:varchar(50)" json:"discount_code"`

	//ゲスト照会用トークン。注文作成時に1度だけ発行し、再発行しない
	AccessToken string `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`

	//直近の決済試行でゲートウェイへ送ったorderId。照会APIで使う
	LastPaymentRef string `gorm:"type:varchar(80)" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
