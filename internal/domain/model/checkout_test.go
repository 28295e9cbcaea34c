package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceCheckout_Forward(t *testing.T) {
	assert.True(t, CanAdvanceCheckout(CheckoutStepCart, CheckoutStepAddress))
	assert.True(t, CanAdvanceCheckout(CheckoutStepAddress, CheckoutStepPayment))
	assert.True(t, CanAdvanceCheckout(CheckoutStepPayment, CheckoutStepReview))
	assert.True(t, CanAdvanceCheckout(CheckoutStepReview, CheckoutStepComplete))

	//スキップ禁止
	assert.False(t, CanAdvanceCheckout(CheckoutStepCart, CheckoutStepPayment))
	assert.False(t, CanAdvanceCheckout(CheckoutStepAddress, CheckoutStepComplete))
}

func TestCanAdvanceCheckout_Backward(t *testing.T) {
	//住所のやり直しなど、後退は再入力として許す
	assert.True(t, CanAdvanceCheckout(CheckoutStepReview, CheckoutStepAddress))
	assert.True(t, CanAdvanceCheckout(CheckoutStepPayment, CheckoutStepPayment))

	//COMPLETEからは動かない
	assert.False(t, CanAdvanceCheckout(CheckoutStepComplete, CheckoutStepReview))
	assert.False(t, CanAdvanceCheckout(CheckoutStepComplete, CheckoutStepComplete))
}

func TestCanAdvanceCheckout_Cancelled(t *testing.T) {
	assert.True(t, CanAdvanceCheckout(CheckoutStepCart, CheckoutStepCancelled))
	assert.True(t, CanAdvanceCheckout(CheckoutStepReview, CheckoutStepCancelled))

	//完了・離脱済みからは入れない
	assert.False(t, CanAdvanceCheckout(CheckoutStepComplete, CheckoutStepCancelled))
	assert.False(t, CanAdvanceCheckout(CheckoutStepCancelled, CheckoutStepCancelled))
	assert.False(t, CanAdvanceCheckout(CheckoutStepCancelled, CheckoutStepAddress))
}
