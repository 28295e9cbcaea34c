package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByAccessToken(ctx context.Context, token string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("access_token = ?", token).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// 支払い軸のガード付き遷移。
// 現在値がfromの行だけを更新する。0件更新なら他のwriterが先に進めている。
func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, from model.PaymentStatus, to model.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, from).
		Update("payment_status", to)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleStatus
	}
	return nil
}

// 配送軸のガード付き遷移。
func (r *OrderGormRepository) UpdateOrderStatus(ctx context.Context, orderID int64, from int64, to int64) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND order_status_id = ?", orderID, from).
		Update("order_status_id", to)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleStatus
	}
	return nil
}

// 支払い方法の変更。PENDING/FAILEDの間だけ通る。
func (r *OrderGormRepository) UpdatePaymentMethodIfRetryable(ctx context.Context, orderID int64, method model.PaymentMethod) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusFailed}).
		Update("payment_method", method)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleStatus
	}
	return nil
}

// ゲスト注文へのメール紐付け。未設定か同じメールのときだけ通る。
func (r *OrderGormRepository) BindGuestEmail(ctx context.Context, orderID int64, email string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND user_id IS NULL AND (guest_email = '' OR guest_email = ?)", orderID, email).
		Update("guest_email", email)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleStatus
	}
	return nil
}

// 直近の決済試行のゲートウェイ側orderIdを記録する。
func (r *OrderGormRepository) UpdatePaymentRef(ctx context.Context, orderID int64, ref string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("last_payment_ref", ref).Error
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//payment_status 絞り込み
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}

	//配送軸 絞り込み
	if f.OrderStatusID != nil {
		q = q.Where("order_status_id = ?", *f.OrderStatusID)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}
