package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

func guestOrder() model.Order {
	return model.Order{
		ID:            42,
		GuestName:     "Nguyen Van A",
		GuestEmail:    "a@example.com",
		TotalAmount:   1030000,
		PaymentMethod: model.PaymentMethodMomo,
		PaymentStatus: model.PaymentStatusPending,
		OrderStatusID: model.OrderStatusProcessing,
		AccessToken:   "guest-token",
	}
}

func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrder(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	itemRepo := new(OrderItemRepoMock)

	otherID := int64(99)
	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{ID: 42, UserID: &otherID}, nil)

	uc := NewOrderUsecase(orderRepo, itemRepo, new(MailerMock))

	_, err := uc.GetMyOrderDetail(context.Background(), 7, 42)
	//他人の注文は404（存在を漏らさない）
	assertHTTPStatus(t, err, 404)
}

func TestOrderUsecase_GetGuestOrder(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	itemRepo := new(OrderItemRepoMock)

	orderRepo.On("FindByAccessToken", mock.Anything, "guest-token").Return(guestOrder(), nil)
	itemRepo.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{
		{ID: 1, OrderID: 42, ProductNameSnapshot: "Perfume A", UnitPriceSnapshot: 500000, Quantity: 2},
	}, nil)

	uc := NewOrderUsecase(orderRepo, itemRepo, new(MailerMock))

	out, err := uc.GetGuestOrder(context.Background(), "guest-token")
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, int64(1030000), out.TotalAmount)
	assert.Equal(t, "PROCESSING", out.OrderStatus)
	assert.Equal(t, 1, len(out.Items))
}

func TestOrderUsecase_GetGuestOrder_UnknownToken(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	orderRepo.On("FindByAccessToken", mock.Anything, "nope").Return(model.Order{}, repo.ErrNotFound)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), new(MailerMock))

	_, err := uc.GetGuestOrder(context.Background(), "nope")
	assertHTTPStatus(t, err, 404)
}

func TestOrderUsecase_LookupToken_SendsExistingToken(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	mailer := new(MailerMock)

	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(guestOrder(), nil)
	orderRepo.On("BindGuestEmail", mock.Anything, int64(42), "a@example.com").Return(nil)
	//既存トークンをそのまま送る（再発行しない）
	mailer.On("SendAccessToken", mock.Anything, "a@example.com", int64(42), "guest-token").Return(nil)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), mailer)

	err := uc.LookupToken(context.Background(), LookupTokenInput{OrderID: 42, Email: "A@Example.com"})
	require.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestOrderUsecase_LookupToken_ByToken(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	mailer := new(MailerMock)

	//注文IDを知らないゲストはトークンだけで申告できる
	orderRepo.On("FindByAccessToken", mock.Anything, "guest-token").Return(guestOrder(), nil)
	orderRepo.On("BindGuestEmail", mock.Anything, int64(42), "a@example.com").Return(nil)
	mailer.On("SendAccessToken", mock.Anything, "a@example.com", int64(42), "guest-token").Return(nil)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), mailer)

	err := uc.LookupToken(context.Background(), LookupTokenInput{Token: "guest-token", Email: "a@example.com"})
	require.NoError(t, err)
	mailer.AssertExpectations(t)
	orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderUsecase_LookupToken_NeitherTokenNorID(t *testing.T) {
	uc := NewOrderUsecase(new(OrderRepoMock), new(OrderItemRepoMock), new(MailerMock))

	err := uc.LookupToken(context.Background(), LookupTokenInput{Email: "a@example.com"})
	assertHTTPStatus(t, err, 400)
}

func TestOrderUsecase_LookupToken_EmailMismatchIsSilent(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	mailer := new(MailerMock)

	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(guestOrder(), nil)
	//別のメールを申告された。SQLガードが弾く
	orderRepo.On("BindGuestEmail", mock.Anything, int64(42), "b@example.com").Return(repo.ErrStaleStatus)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), mailer)

	//成否を漏らさないため応答は成功と同じ
	err := uc.LookupToken(context.Background(), LookupTokenInput{OrderID: 42, Email: "b@example.com"})
	require.NoError(t, err)
	mailer.AssertNotCalled(t, "SendAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_LookupToken_MemberOrderIsSilent(t *testing.T) {
	orderRepo := new(OrderRepoMock)
	mailer := new(MailerMock)

	uid := int64(7)
	o := guestOrder()
	o.UserID = &uid
	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(o, nil)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), mailer)

	err := uc.LookupToken(context.Background(), LookupTokenInput{OrderID: 42, Email: "a@example.com"})
	require.NoError(t, err)
	mailer.AssertNotCalled(t, "SendAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_ChangePaymentMethod_Retryable(t *testing.T) {
	orderRepo := new(OrderRepoMock)

	order := guestOrder()
	order.PaymentStatus = model.PaymentStatusFailed
	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(order, nil)
	orderRepo.On("UpdatePaymentMethodIfRetryable", mock.Anything, int64(42), model.PaymentMethodCOD).Return(nil)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), new(MailerMock))

	err := uc.ChangePaymentMethod(context.Background(), ChangePaymentMethodInput{
		OrderID:   42,
		Requester: OrderRequester{AccessToken: "guest-token"},
		Method:    "cod",
	})
	require.NoError(t, err)
	orderRepo.AssertExpectations(t)
}

func TestOrderUsecase_ChangePaymentMethod_SettledOrder(t *testing.T) {
	orderRepo := new(OrderRepoMock)

	order := guestOrder()
	order.PaymentStatus = model.PaymentStatusPaid
	orderRepo.On("FindByID", mock.Anything, int64(42)).Return(order, nil)
	orderRepo.On("UpdatePaymentMethodIfRetryable", mock.Anything, int64(42), model.PaymentMethodCOD).Return(repo.ErrStaleStatus)

	uc := NewOrderUsecase(orderRepo, new(OrderItemRepoMock), new(MailerMock))

	err := uc.ChangePaymentMethod(context.Background(), ChangePaymentMethodInput{
		OrderID:   42,
		Requester: OrderRequester{AccessToken: "guest-token"},
		Method:    "COD",
	})
	assertHTTPStatus(t, err, 409)
}
