package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算（バリアント単位）
	DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, variantID int64, qty int64) error
}
