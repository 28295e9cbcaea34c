package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type DiscountGormRepository struct {
	db *gorm.DB
}

func NewDiscountGormRepository(db *gorm.DB) *DiscountGormRepository {
	return &DiscountGormRepository{db: db}
}

func (r *DiscountGormRepository) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	var d model.Discount
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Discount{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Discount{}, err
	}
	return d, nil
}

// 残回数が残っているときだけ減らす
func (r *DiscountGormRepository) DecrementRemainingUses(ctx context.Context, discountID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Discount{}).
		Where("id = ? AND remaining_uses > 0", discountID).
		Update("remaining_uses", gorm.Expr("remaining_uses - ?", 1))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
