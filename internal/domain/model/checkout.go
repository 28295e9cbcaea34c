package model

// チェックアウトの進行状態。
// cart → address → payment → review → complete の一方向のみ進める。
type CheckoutStep string

const (
	CheckoutStepCart      CheckoutStep = "CART"
	CheckoutStepAddress   CheckoutStep = "ADDRESS"
	CheckoutStepPayment   CheckoutStep = "PAYMENT"
	CheckoutStepReview    CheckoutStep = "REVIEW"
	CheckoutStepComplete  CheckoutStep = "COMPLETE"
	CheckoutStepCancelled CheckoutStep = "CANCELLED"
)

// 前進の順序。小さい方から大きい方へ1つずつ。
var checkoutStepOrder = map[CheckoutStep]int{
	CheckoutStepCart:     0,
	CheckoutStepAddress:  1,
	CheckoutStepPayment:  2,
	CheckoutStepReview:   3,
	CheckoutStepComplete: 4,
}

// fromからtoへ進めるか。
// COMPLETEとCANCELLEDは終端で、入ったら二度と動かない。
// CANCELLEDはCOMPLETE以外のどこからでも入れる。
func CanAdvanceCheckout(from CheckoutStep, to CheckoutStep) bool {
	if from == CheckoutStepComplete || from == CheckoutStepCancelled {
		return false
	}
	if to == CheckoutStepCancelled {
		return true
	}

	fo, ok := checkoutStepOrder[from]
	if !ok {
		return false
	}
	no, ok := checkoutStepOrder[to]
	if !ok {
		return false
	}

	//スキップ禁止・後退は同じ位置までなら再入力として許す
	return no == fo+1 || no <= fo
}
