package repository

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 持ち主の条件（会員 or ゲストセッション）
func ownerScope(q *gorm.DB, owner repo.CartOwner) *gorm.DB {
	if owner.UserID != nil {
		return q.Where("user_id = ?", *owner.UserID)
	}
	return q.Where("user_id IS NULL AND session_key = ?", owner.SessionKey)
}

// 持ち主のACTIVEカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateActive(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {

	var cart model.Cart

	//トランザクションで探す→無ければ作る
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := ownerScope(tx.Clauses(clause.Locking{Strength: "UPDATE"}), owner).
			Where("status = ?", model.CartStatusActive).
			Order("id desc").
			First(&cart).Error

		if findErr == nil {
			return nil
		}

		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る
		now := time.Now()
		newCart := model.Cart{
			UserID:       owner.UserID,
			SessionKey:   owner.SessionKey,
			Status:       model.CartStatusActive,
			CheckoutStep: model.CheckoutStepCart,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.Create(&newCart).Error; err != nil {
			retryErr := ownerScope(tx, owner).
				Where("status = ?", model.CartStatusActive).
				Order("id desc").
				First(&cart).Error
			if retryErr == nil {
				return nil
			}
			return err
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 持ち主のACTIVEカートを取得
func (r *CartGormRepository) FindActive(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {
	var cart model.Cart

	err := ownerScope(r.db.WithContext(ctx), owner).
		Where("status = ?", model.CartStatusActive).
		Order("id desc").
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Where("id = ?", cartID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// carts.statusを更新
func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// チェックアウトの進行と入力をまとめて保存
func (r *CartGormRepository) UpdateCheckout(ctx context.Context, cartID int64, f repo.CheckoutFields) error {
	updates := map[string]interface{}{
		"checkout_step": f.Step,
	}
	if f.Shipping != nil {
		updates["ship_name"] = f.Shipping.Name
		updates["ship_phone"] = f.Shipping.Phone
		updates["ship_line1"] = f.Shipping.Line1
		updates["ship_line2"] = f.Shipping.Line2
		updates["ship_city"] = f.Shipping.City
		updates["ship_province"] = f.Shipping.Province
		updates["ship_postal_code"] = f.Shipping.PostalCode
	}
	if f.GuestName != nil {
		updates["guest_name"] = *f.GuestName
	}
	if f.GuestEmail != nil {
		updates["guest_email"] = *f.GuestEmail
	}
	if f.GuestPhone != nil {
		updates["guest_phone"] = *f.GuestPhone
	}
	if f.PaymentMethod != nil {
		updates["payment_method"] = *f.PaymentMethod
	}
	if f.DiscountCode != nil {
		updates["discount_code"] = *f.DiscountCode
	}

	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		if err := tx.Where("id = ?", cartID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		//cart_itemsを全削除
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		return nil
	})
}
