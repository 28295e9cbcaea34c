package model

import "time"

// 注文ステータス更新、決済消込など。
type AuditAction string

const (
	//配送軸ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//支払い軸ステータスを更新した操作（webhook/ポーリング含む）。
	AuditActionUpdatePaymentStatus AuditAction = "UPDATE_PAYMENT_STATUS"
	//コールバックの金額不一致。状態は変更せず記録だけ残す。
	AuditActionIntegrityIncident AuditAction = "INTEGRITY_INCIDENT"
	//コールバックの署名不一致。改ざんの可能性として記録する。
	AuditActionSignatureRejected AuditAction = "SIGNATURE_REJECTED"
)

// 何に対する操作か
type AuditResourceType string

const (
	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"

	//決済に対する操作。
	AuditResourcePayment AuditResourceType = "payment"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
// ゲートウェイ起点の操作はactor_user_id=0（システム）。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。システム操作は0。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//Actionは操作の種類。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（order / payment）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
