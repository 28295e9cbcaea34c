package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// ゲスト照会トークンの発行。注文作成時に1度だけ呼ぶ。
type AccessTokenIssuer interface {
	Issue() (string, error)
}

// CheckoutUsecase はカートを注文に変える一方向のフローを進める。
// 進行状態はACTIVEカートに持つ。completeの前に離脱しても注文行は残らない。
type CheckoutUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	discountRepo repo.DiscountRepository
	tokens       AccessTokenIssuer
	shippingFee  int64
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	discountRepo repo.DiscountRepository,
	tokens AccessTokenIssuer,
	shippingFee int64,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		discountRepo: discountRepo,
		tokens:       tokens,
		shippingFee:  shippingFee,
	}
}

type AddressInput struct {
	Shipping   model.ShippingAddress
	GuestName  string
	GuestEmail string
	GuestPhone string
}

type PaymentMethodInput struct {
	Method       string
	DiscountCode string
}

// reviewで見せる確定前の金額内訳。
type ReviewOutput struct {
	Items          []CartItemResponse `json:"items"`
	SubtotalAmount int64              `json:"subtotal_amount"`
	DiscountAmount int64              `json:"discount_amount"`
	ShippingFee    int64              `json:"shipping_fee"`
	TotalAmount    int64              `json:"total_amount"`
	PaymentMethod  string             `json:"payment_method"`
	DiscountCode   string             `json:"discount_code,omitempty"`
}

type CompleteOutput struct {
	Order OrderOutput `json:"order"`
	//ゲスト注文のときだけ返す照会トークン
	AccessToken string `json:"access_token,omitempty"`
}

// cart→address。カートが空なら進めない。
func (u *CheckoutUsecase) SubmitAddress(ctx context.Context, owner repo.CartOwner, in AddressInput) error {
	if err := validateOwner(owner); err != nil {
		return err
	}

	cart, items, err := u.activeCartWithItems(ctx, owner)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	if !in.Shipping.Complete() {
		return NewHTTPError(http.StatusBadRequest, "incomplete address")
	}

	//ゲストは連絡先が必須（identityとXOR）
	if owner.UserID == nil {
		if strings.TrimSpace(in.GuestName) == "" || strings.TrimSpace(in.GuestEmail) == "" {
			return NewHTTPError(http.StatusBadRequest, "guest contact required")
		}
	}

	if !model.CanAdvanceCheckout(cart.CheckoutStep, model.CheckoutStepAddress) {
		return NewHTTPError(http.StatusConflict, "checkout already finished")
	}

	f := repo.CheckoutFields{
		Step:     model.CheckoutStepAddress,
		Shipping: &in.Shipping,
	}
	if owner.UserID == nil {
		f.GuestName = &in.GuestName
		f.GuestEmail = &in.GuestEmail
		f.GuestPhone = &in.GuestPhone
	}

	if err := u.cartRepo.UpdateCheckout(ctx, cart.ID, f); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// address→payment。前段の条件も全て検証し直す（クライアントの申告は信用しない）。
func (u *CheckoutUsecase) ChoosePaymentMethod(ctx context.Context, owner repo.CartOwner, in PaymentMethodInput) error {
	if err := validateOwner(owner); err != nil {
		return err
	}

	cart, items, err := u.activeCartWithItems(ctx, owner)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if !cart.Shipping.Complete() {
		return NewHTTPError(http.StatusBadRequest, "incomplete address")
	}

	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.Method)))
	if method != model.PaymentMethodMomo && method != model.PaymentMethodCOD {
		return NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}

	code := strings.TrimSpace(in.DiscountCode)
	if code != "" {
		subtotal := subtotalOf(items)
		if _, err := u.validateDiscount(ctx, code, subtotal); err != nil {
			return err
		}
	}

	if !model.CanAdvanceCheckout(cart.CheckoutStep, model.CheckoutStepPayment) {
		return NewHTTPError(http.StatusConflict, "checkout already finished")
	}

	if err := u.cartRepo.UpdateCheckout(ctx, cart.ID, repo.CheckoutFields{
		Step:          model.CheckoutStepPayment,
		PaymentMethod: &method,
		DiscountCode:  &code,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// payment→review。確定前の内訳を返す。
func (u *CheckoutUsecase) Review(ctx context.Context, owner repo.CartOwner) (ReviewOutput, error) {
	if err := validateOwner(owner); err != nil {
		return ReviewOutput{}, err
	}

	cart, items, err := u.activeCartWithItems(ctx, owner)
	if err != nil {
		return ReviewOutput{}, err
	}

	out, _, err := u.buildReview(ctx, cart, items)
	if err != nil {
		return ReviewOutput{}, err
	}

	if !model.CanAdvanceCheckout(cart.CheckoutStep, model.CheckoutStepReview) {
		return ReviewOutput{}, NewHTTPError(http.StatusConflict, "checkout already finished")
	}

	if err := u.cartRepo.UpdateCheckout(ctx, cart.ID, repo.CheckoutFields{Step: model.CheckoutStepReview}); err != nil {
		return ReviewOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

// review→complete。
// 1トランザクションで在庫減算・クーポン消費・注文作成・カートの畳み込みまでやる。
// total_amountはここで確定し、以後は再計算しない。
func (u *CheckoutUsecase) Complete(ctx context.Context, owner repo.CartOwner) (CompleteOutput, error) {
	if err := validateOwner(owner); err != nil {
		return CompleteOutput{}, err
	}

	var out CompleteOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActive(ctx, owner)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		review, discount, err := u.buildReviewWith(ctx, r.Discounts(), cart, items)
		if err != nil {
			return err
		}

		if !model.CanAdvanceCheckout(cart.CheckoutStep, model.CheckoutStepComplete) {
			return NewHTTPError(http.StatusConflict, "checkout already finished")
		}

		//在庫を確定時に再チェックして減らす
		orderItems := make([]model.OrderItem, 0, len(items))
		now := time.Now()

		for _, ci := range items {
			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.VariantID, ci.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				VariantID:           ci.VariantID,
				ProductNameSnapshot: ci.ProductNameSnapshot,
				VolumeSnapshot:      ci.VolumeSnapshot,
				UnitPriceSnapshot:   ci.UnitPriceSnapshot,
				Quantity:            ci.Quantity,
				CreatedAt:           now,
			})
		}

		//クーポンの残回数を消費（適用内容は注文側に凍結済み）
		if discount != nil {
			ok, err := r.Discounts().DecrementRemainingUses(ctx, discount.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "discount exhausted")
			}
		}

		//照会トークンは作成時に1度だけ発行
		token, err := u.tokens.Issue()
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "token error")
		}

		order := model.Order{
			UserID:         cart.UserID,
			GuestName:      cart.GuestName,
			GuestEmail:     cart.GuestEmail,
			GuestPhone:     cart.GuestPhone,
			Shipping:       cart.Shipping,
			SubtotalAmount: review.SubtotalAmount,
			DiscountAmount: review.DiscountAmount,
			ShippingFee:    review.ShippingFee,
			TotalAmount:    review.TotalAmount,
			PaymentMethod:  cart.PaymentMethod,
			PaymentStatus:  model.PaymentStatusPending,
			OrderStatusID:  model.OrderStatusProcessing,
			DiscountCode:   cart.DiscountCode,
			AccessToken:    token,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートをCHECKED_OUTにして、明細をクリア（再注文防止）
		if err := r.Carts().UpdateCheckout(ctx, cart.ID, repo.CheckoutFields{Step: model.CheckoutStepComplete}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out.Order = toOrderOutput(order, orderItems)
		if cart.UserID == nil {
			out.AccessToken = token
		}
		return nil
	})

	if err != nil {
		return CompleteOutput{}, err
	}
	return out, nil
}

// 完了前ならどこからでも離脱できる。注文行は作られない。
func (u *CheckoutUsecase) Cancel(ctx context.Context, owner repo.CartOwner) error {
	if err := validateOwner(owner); err != nil {
		return err
	}

	cart, err := u.cartRepo.FindActive(ctx, owner)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !model.CanAdvanceCheckout(cart.CheckoutStep, model.CheckoutStepCancelled) {
		return NewHTTPError(http.StatusConflict, "checkout already finished")
	}

	if err := u.cartRepo.UpdateCheckout(ctx, cart.ID, repo.CheckoutFields{Step: model.CheckoutStepCancelled}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.cartRepo.UpdateStatus(ctx, cart.ID, model.CartStatusAbandoned); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// ACTIVEカートと明細の取得をまとめる。
func (u *CheckoutUsecase) activeCartWithItems(ctx context.Context, owner repo.CartOwner) (model.Cart, []model.CartItem, error) {
	cart, err := u.cartRepo.FindActive(ctx, owner)
	if err == repo.ErrNotFound {
		return model.Cart{}, nil, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return model.Cart{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return model.Cart{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cart, items, nil
}

// 前段の全条件を検証して内訳を組み立てる。
func (u *CheckoutUsecase) buildReview(ctx context.Context, cart model.Cart, items []model.CartItem) (ReviewOutput, *model.Discount, error) {
	return u.buildReviewWith(ctx, u.discountRepo, cart, items)
}

func (u *CheckoutUsecase) buildReviewWith(ctx context.Context, discounts repo.DiscountRepository, cart model.Cart, items []model.CartItem) (ReviewOutput, *model.Discount, error) {
	if len(items) == 0 {
		return ReviewOutput{}, nil, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if !cart.Shipping.Complete() {
		return ReviewOutput{}, nil, NewHTTPError(http.StatusBadRequest, "incomplete address")
	}
	if cart.PaymentMethod != model.PaymentMethodMomo && cart.PaymentMethod != model.PaymentMethodCOD {
		return ReviewOutput{}, nil, NewHTTPError(http.StatusBadRequest, "payment method not chosen")
	}

	subtotal := subtotalOf(items)

	var discount *model.Discount
	var discountAmount int64 = 0
	if cart.DiscountCode != "" {
		d, err := u.validateDiscountWith(ctx, discounts, cart.DiscountCode, subtotal)
		if err != nil {
			return ReviewOutput{}, nil, err
		}
		discount = d
		discountAmount = d.AmountFor(subtotal)
	}

	total := subtotal - discountAmount + u.shippingFee
	if total < 0 {
		total = 0
	}

	respItems := make([]CartItemResponse, 0, len(items))
	for _, it := range items {
		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			Volume:    it.VolumeSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return ReviewOutput{
		Items:          respItems,
		SubtotalAmount: subtotal,
		DiscountAmount: discountAmount,
		ShippingFee:    u.shippingFee,
		TotalAmount:    total,
		PaymentMethod:  string(cart.PaymentMethod),
		DiscountCode:   cart.DiscountCode,
	}, discount, nil
}

func (u *CheckoutUsecase) validateDiscount(ctx context.Context, code string, subtotal int64) (*model.Discount, error) {
	return u.validateDiscountWith(ctx, u.discountRepo, code, subtotal)
}

func (u *CheckoutUsecase) validateDiscountWith(ctx context.Context, discounts repo.DiscountRepository, code string, subtotal int64) (*model.Discount, error) {
	d, err := discounts.FindByCode(ctx, code)
	if err == repo.ErrNotFound {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid discount code")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !d.UsableAt(time.Now(), subtotal) {
		return nil, NewHTTPError(http.StatusBadRequest, "discount not applicable")
	}
	return &d, nil
}

func subtotalOf(items []model.CartItem) int64 {
	var subtotal int64 = 0
	for _, it := range items {
		subtotal += it.UnitPriceSnapshot * it.Quantity
	}
	return subtotal
}
