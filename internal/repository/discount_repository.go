package repository

import (
	"context"

	"shop/internal/domain/model"
)

type DiscountRepository interface {
	FindByCode(ctx context.Context, code string) (model.Discount, error)
	//残回数が残っているときだけ減らす
	DecrementRemainingUses(ctx context.Context, discountID int64) (bool, error)
}
