package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 決済記録の永続化。
// trans_idの一意制約が重複コールバックの二重記録を防ぐ。
type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	//同じゲートウェイトランザクションを処理済みかの判定に使う
	FindByTransID(ctx context.Context, transID string) (model.Payment, bool, error)
	//COMPLETEDは注文につき最大1行
	FindCompletedByOrderID(ctx context.Context, orderID int64) (model.Payment, bool, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error)
}
