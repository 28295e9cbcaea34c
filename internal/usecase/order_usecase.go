package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/mail"
	repo "shop/internal/repository"
)

// OrderUsecase は注文の照会と、確定後に許される数少ない変更を担当する。
type OrderUsecase struct {
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	mailer        mail.Mailer
}

func NewOrderUsecase(
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	mailer mail.Mailer,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		mailer:        mailer,
	}
}

type OrderItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Name      string `json:"name"`
	Volume    string `json:"volume"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// 金額は全て注文時に凍結した値。明細から再計算して返すことはしない。
type OrderOutput struct {
	ID             int64                 `json:"id"`
	Items          []OrderItemOutput     `json:"items"`
	Shipping       model.ShippingAddress `json:"shipping"`
	GuestName      string                `json:"guest_name,omitempty"`
	GuestEmail     string                `json:"guest_email,omitempty"`
	SubtotalAmount int64                 `json:"subtotal_amount"`
	DiscountAmount int64                 `json:"discount_amount"`
	ShippingFee    int64                 `json:"shipping_fee"`
	TotalAmount    int64                 `json:"total_amount"`
	PaymentMethod  string                `json:"payment_method"`
	PaymentStatus  string                `json:"payment_status"`
	OrderStatus    string                `json:"order_status"`
	DiscountCode   string                `json:"discount_code,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// ListMyOrders は会員本人の注文一覧。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orderRepo.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//一覧は明細なしで返す
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, nil))
	}
	return OrderListOutput{Orders: outs, Total: total, Page: page, Limit: limit}, nil
}

// GetMyOrderDetail は会員本人の注文詳細。他人の注文は404（存在を漏らさない）。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID == nil || *order.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return u.withItems(ctx, order)
}

// GetGuestOrder は照会トークンによるゲスト注文の閲覧。
func (u *OrderUsecase) GetGuestOrder(ctx context.Context, token string) (OrderOutput, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	order, err := u.orderRepo.FindByAccessToken(ctx, token)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.withItems(ctx, order)
}

type LookupTokenInput struct {
	Token   string
	OrderID int64
	Email   string
}

// LookupToken はトークンを失くしたゲストのための再送。
// 注文の特定はトークンか注文IDのどちらでもよい（トークン優先）。
// トークンは再発行せず、既存のものをメール宛に送り直すだけ。
// メール未設定の注文なら最初の申告を紐付ける。以後は一致したときだけ通す。
// 会員注文・メール不一致でも応答は同じ（成否を漏らさない）。
func (u *OrderUsecase) LookupToken(ctx context.Context, in LookupTokenInput) error {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	token := strings.TrimSpace(in.Token)
	if email == "" || (token == "" && in.OrderID <= 0) {
		return NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	var order model.Order
	var err error
	if token != "" {
		order, err = u.orderRepo.FindByAccessToken(ctx, token)
	} else {
		order, err = u.orderRepo.FindByID(ctx, in.OrderID)
	}
	if err == repo.ErrNotFound {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//対象はゲスト注文だけ
	if order.UserID != nil {
		return nil
	}

	//未設定なら紐付け、設定済みなら一致だけ通す（ガードはSQL側）
	err = u.orderRepo.BindGuestEmail(ctx, order.ID, email)
	if err == repo.ErrStaleStatus {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.mailer.SendAccessToken(ctx, email, order.ID, order.AccessToken); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "mail error")
	}
	return nil
}

type ChangePaymentMethodInput struct {
	OrderID   int64
	Requester OrderRequester
	Method    string
}

// ChangePaymentMethod は未決済（PENDING/FAILED）の注文の支払い方法を切り替える。
// PAID/REFUNDEDでは409。
func (u *OrderUsecase) ChangePaymentMethod(ctx context.Context, in ChangePaymentMethodInput) error {
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.Method)))
	if method != model.PaymentMethodMomo && method != model.PaymentMethodCOD {
		return NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	owned := false
	if in.Requester.UserID != nil && order.UserID != nil && *in.Requester.UserID == *order.UserID {
		owned = true
	}
	if in.Requester.AccessToken != "" && order.AccessToken == in.Requester.AccessToken {
		owned = true
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	err = u.orderRepo.UpdatePaymentMethodIfRetryable(ctx, order.ID, method)
	if err == repo.ErrStaleStatus {
		return NewHTTPError(http.StatusConflict, "payment already settled")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *OrderUsecase) withItems(ctx context.Context, order model.Order) (OrderOutput, error) {
	items, err := u.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(order, items), nil
}

func toOrderOutput(order model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			Volume:    it.VolumeSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:             order.ID,
		Items:          outItems,
		Shipping:       order.Shipping,
		GuestName:      order.GuestName,
		GuestEmail:     order.GuestEmail,
		SubtotalAmount: order.SubtotalAmount,
		DiscountAmount: order.DiscountAmount,
		ShippingFee:    order.ShippingFee,
		TotalAmount:    order.TotalAmount,
		PaymentMethod:  string(order.PaymentMethod),
		PaymentStatus:  string(order.PaymentStatus),
		OrderStatus:    model.OrderStatusName(order.OrderStatusID),
		DiscountCode:   order.DiscountCode,
		CreatedAt:      order.CreatedAt,
	}
}
