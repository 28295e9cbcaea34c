package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shop/internal/domain/model"
	"shop/internal/gateway/momo"
	repo "shop/internal/repository"
)

// =====================
// Repository mocks
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActive(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActive(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	args := m.Called(ctx, cartID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) UpdateCheckout(ctx context.Context, cartID int64, f repo.CheckoutFields) error {
	args := m.Called(ctx, cartID, f)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndVariant(ctx context.Context, cartID int64, snap repo.CartItemSnapshot, addQty int64) error {
	args := m.Called(ctx, cartID, snap, addQty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedBy(ctx context.Context, cartItemID int64, owner repo.CartOwner) (bool, error) {
	args := m.Called(ctx, cartItemID, owner)
	return args.Bool(0), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByAccessToken(ctx context.Context, token string) (model.Order, error) {
	args := m.Called(ctx, token)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdatePaymentStatus(ctx context.Context, orderID int64, from model.PaymentStatus, to model.PaymentStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateOrderStatus(ctx context.Context, orderID int64, from int64, to int64) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdatePaymentMethodIfRetryable(ctx context.Context, orderID int64, method model.PaymentMethod) error {
	args := m.Called(ctx, orderID, method)
	return args.Error(0)
}

func (m *OrderRepoMock) BindGuestEmail(ctx context.Context, orderID int64, email string) error {
	args := m.Called(ctx, orderID, email)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdatePaymentRef(ctx context.Context, orderID int64, ref string) error {
	args := m.Called(ctx, orderID, ref)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, p model.Payment) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentRepoMock) FindByTransID(ctx context.Context, transID string) (model.Payment, bool, error) {
	args := m.Called(ctx, transID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Bool(1), args.Error(2)
}

func (m *PaymentRepoMock) FindCompletedByOrderID(ctx context.Context, orderID int64) (model.Payment, bool, error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Bool(1), args.Error(2)
}

func (m *PaymentRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error) {
	args := m.Called(ctx, orderID)
	ps, _ := args.Get(0).([]model.Payment)
	return ps, args.Error(1)
}

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) DecrementRemainingUses(ctx context.Context, discountID int64) (bool, error) {
	args := m.Called(ctx, discountID)
	return args.Bool(0), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	args := m.Called(ctx, variantID)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditLogRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// TxManager / TxRepos
// =====================

// txReposStub は各repoのmockをそのままTxReposとして見せる。
type txReposStub struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	payments   repo.PaymentRepository
	discounts  repo.DiscountRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
}

func (r *txReposStub) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposStub) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposStub) Carts() repo.CartRepository           { return r.carts }
func (r *txReposStub) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposStub) Payments() repo.PaymentRepository     { return r.payments }
func (r *txReposStub) Discounts() repo.DiscountRepository   { return r.discounts }
func (r *txReposStub) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposStub) Products() repo.ProductRepository     { return r.products }

// txManagerStub はfnをそのまま実行する（commit/rollbackはしない）。
type txManagerStub struct {
	Repos repo.TxRepos
}

func (m *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

// =====================
// Gateway / mailer / token issuer
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreatePayment(ctx context.Context, in momo.CreateInput) (momo.CreateResponse, error) {
	args := m.Called(ctx, in)
	resp, _ := args.Get(0).(momo.CreateResponse)
	return resp, args.Error(1)
}

func (m *GatewayMock) QueryStatus(ctx context.Context, requestID string, orderID string) (momo.QueryResponse, error) {
	args := m.Called(ctx, requestID, orderID)
	resp, _ := args.Get(0).(momo.QueryResponse)
	return resp, args.Error(1)
}

func (m *GatewayMock) VerifyCallback(cb momo.CallbackRequest) bool {
	args := m.Called(cb)
	return args.Bool(0)
}

type MailerMock struct{ mock.Mock }

func (m *MailerMock) SendAccessToken(ctx context.Context, email string, orderID int64, token string) error {
	args := m.Called(ctx, email, orderID, token)
	return args.Error(0)
}

// 固定トークンの発行器。
type fixedTokenIssuer struct {
	token string
}

func (g *fixedTokenIssuer) Issue() (string, error) {
	return g.token, nil
}
