package repository

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/model"
)

// ガード付き更新で、現在のステータスが期待と違ったとき。
// 古いwriterの上書きはこのエラーで拒否される。
var ErrStaleStatus = errors.New("stale status")

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	PaymentStatus string
	OrderStatusID *int64
	UserID        *int64
	From          *time.Time
	To            *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByAccessToken(ctx context.Context, token string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//支払い軸のガード付き遷移。fromが一致しなければErrStaleStatus。
	UpdatePaymentStatus(ctx context.Context, orderID int64, from model.PaymentStatus, to model.PaymentStatus) error
	//配送軸のガード付き遷移。
	UpdateOrderStatus(ctx context.Context, orderID int64, from int64, to int64) error
	//支払い方法の変更。payment_statusがPENDING/FAILEDのときだけ通る。
	UpdatePaymentMethodIfRetryable(ctx context.Context, orderID int64, method model.PaymentMethod) error
	//ゲスト注文へのメール紐付け。未設定か同じメールのときだけ通る。
	BindGuestEmail(ctx context.Context, orderID int64, email string) error
	//直近の決済試行のゲートウェイ側orderIdを記録する。
	UpdatePaymentRef(ctx context.Context, orderID int64, ref string) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
