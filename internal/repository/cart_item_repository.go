package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 追加時点のスナップショットをまとめて渡す。
type CartItemSnapshot struct {
	ProductID   int64
	VariantID   int64
	UnitPrice   int64
	ProductName string
	Volume      string
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一(product, variant)は数量プラス
	UpsertByCartAndVariant(ctx context.Context, cartID int64, snap CartItemSnapshot, addQty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedBy(ctx context.Context, cartItemID int64, owner CartOwner) (bool, error)
}
