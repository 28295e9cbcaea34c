package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitPaymentStatus(t *testing.T) {
	//許可される辺
	assert.True(t, CanTransitPaymentStatus(PaymentStatusPending, PaymentStatusPaid))
	assert.True(t, CanTransitPaymentStatus(PaymentStatusPending, PaymentStatusFailed))
	assert.True(t, CanTransitPaymentStatus(PaymentStatusPaid, PaymentStatusRefunded))

	//FAILEDからPAIDへは戻れない（新しい決済試行で消し込む）
	assert.False(t, CanTransitPaymentStatus(PaymentStatusFailed, PaymentStatusPaid))

	assert.False(t, CanTransitPaymentStatus(PaymentStatusPaid, PaymentStatusPending))
	assert.False(t, CanTransitPaymentStatus(PaymentStatusRefunded, PaymentStatusPaid))
	assert.False(t, CanTransitPaymentStatus(PaymentStatusPending, PaymentStatusRefunded))
	assert.False(t, CanTransitPaymentStatus(PaymentStatusFailed, PaymentStatusRefunded))
}

func TestCanTransitOrderStatus(t *testing.T) {
	assert.True(t, CanTransitOrderStatus(OrderStatusProcessing, OrderStatusShipping))
	assert.True(t, CanTransitOrderStatus(OrderStatusProcessing, OrderStatusCancelled))
	assert.True(t, CanTransitOrderStatus(OrderStatusShipping, OrderStatusDelivered))
	assert.True(t, CanTransitOrderStatus(OrderStatusShipping, OrderStatusCancelled))
	assert.True(t, CanTransitOrderStatus(OrderStatusShipping, OrderStatusDeliveryFailed))

	//終端からは動かない
	assert.False(t, CanTransitOrderStatus(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, CanTransitOrderStatus(OrderStatusCancelled, OrderStatusProcessing))
	assert.False(t, CanTransitOrderStatus(OrderStatusDeliveryFailed, OrderStatusShipping))

	//スキップ禁止
	assert.False(t, CanTransitOrderStatus(OrderStatusProcessing, OrderStatusDelivered))
	assert.False(t, CanTransitOrderStatus(OrderStatusProcessing, OrderStatusDeliveryFailed))
}

func TestOrderStatusName(t *testing.T) {
	assert.Equal(t, "PROCESSING", OrderStatusName(OrderStatusProcessing))
	assert.Equal(t, "SHIPPING", OrderStatusName(OrderStatusShipping))
	assert.Equal(t, "DELIVERED", OrderStatusName(OrderStatusDelivered))
	assert.Equal(t, "CANCELLED", OrderStatusName(OrderStatusCancelled))
	assert.Equal(t, "DELIVERY_FAILED", OrderStatusName(OrderStatusDeliveryFailed))
	assert.Equal(t, "UNKNOWN", OrderStatusName(999))
}

func TestShippingAddressComplete(t *testing.T) {
	full := ShippingAddress{
		Name:     "Nguyen Van A",
		Phone:    "0900000000",
		Line1:    "1 Le Loi",
		City:     "HCMC",
		Province: "HCM",
	}
	assert.True(t, full.Complete())

	//Line2とPostalCodeは任意
	noCity := full
	noCity.City = ""
	assert.False(t, noCity.Complete())

	noPhone := full
	noPhone.Phone = ""
	assert.False(t, noPhone.Complete())
}
