package model

import "time"

// 決済試行の結果。
type PaymentTxnStatus string

const (
	PaymentTxnCompleted PaymentTxnStatus = "COMPLETED"
	PaymentTxnFailed    PaymentTxnStatus = "FAILED"
)

// ゲートウェイからの決済結果の記録。
// trans_idはゲートウェイのトランザクションIDで一意
// （同じコールバックの再配送はこの行の存在で検知する）。
// 1つの注文でCOMPLETEDになれるのは最大1行。
type Payment struct {
	ID       int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID  int64            `gorm:"not null;index" json:"order_id"`
	TransID  string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"trans_id"`
	Amount   int64            `gorm:"not null" json:"amount"`
	Status   PaymentTxnStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Message  string           `gorm:"type:varchar(255)" json:"message"`

	//監査用。ゲートウェイのペイロードをそのまま保存する（ロジックでは信用しない）
	RawPayload string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
