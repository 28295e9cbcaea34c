package repository

import (
	"context"

	"shop/internal/domain/model"
)

// カートの持ち主。会員ならUserID、ゲストならSessionKey。
type CartOwner struct {
	UserID     *int64
	SessionKey string
}

func OwnerOfUser(userID int64) CartOwner {
	return CartOwner{UserID: &userID}
}

func OwnerOfSession(sessionKey string) CartOwner {
	return CartOwner{SessionKey: sessionKey}
}

// チェックアウト進行中にカートへ書き戻す入力。
type CheckoutFields struct {
	Step          model.CheckoutStep
	Shipping      *model.ShippingAddress
	GuestName     *string
	GuestEmail    *string
	GuestPhone    *string
	PaymentMethod *model.PaymentMethod
	DiscountCode  *string
}

type CartRepository interface {
	GetOrCreateActive(ctx context.Context, owner CartOwner) (model.Cart, error)
	FindActive(ctx context.Context, owner CartOwner) (model.Cart, error)
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	//チェックアウトの進行とその入力をまとめて保存
	UpdateCheckout(ctx context.Context, cartID int64, f CheckoutFields) error
	Clear(ctx context.Context, cartID int64) error
}
