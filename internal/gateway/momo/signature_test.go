package momo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	//HMAC-SHA256のhex。同じ入力なら同じ署名
	sig := Sign("secret", "accessKey=ak&amount=100")
	assert.Equal(t, 64, len(sig))
	assert.Equal(t, sig, Sign("secret", "accessKey=ak&amount=100"))

	//鍵か入力のどちらかが違えば別物
	assert.NotEqual(t, sig, Sign("other", "accessKey=ak&amount=100"))
	assert.NotEqual(t, sig, Sign("secret", "accessKey=ak&amount=101"))
}

func TestCreateRawSignature_FieldOrder(t *testing.T) {
	req := CreateRequest{
		PartnerCode: "PC",
		RequestID:   "req-1",
		Amount:      1030000,
		OrderID:     "7-req-1",
		OrderInfo:   "order #7",
		RedirectURL: "https://shop.example/return",
		IpnURL:      "https://shop.example/ipn",
		RequestType: "captureWallet",
		ExtraData:   "",
	}

	want := "accessKey=AK&amount=1030000&extraData=&ipnUrl=https://shop.example/ipn&orderId=7-req-1&orderInfo=order #7&partnerCode=PC&redirectUrl=https://shop.example/return&requestId=req-1&requestType=captureWallet"
	assert.Equal(t, want, createRawSignature("AK", req))
}

func TestCallbackRawSignature_FieldOrder(t *testing.T) {
	cb := CallbackRequest{
		PartnerCode:  "PC",
		OrderID:      "7-req-1",
		RequestID:    "req-1",
		Amount:       1030000,
		OrderInfo:    "order #7",
		OrderType:    "momo_wallet",
		TransID:      900123,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1700000000000,
		ExtraData:    "",
	}

	want := "accessKey=AK&amount=1030000&extraData=&message=Successful.&orderId=7-req-1&orderInfo=order #7&orderType=momo_wallet&partnerCode=PC&payType=qr&requestId=req-1&responseTime=1700000000000&resultCode=0&transId=900123"
	assert.Equal(t, want, callbackRawSignature("AK", cb))
}

func TestQueryRawSignature_FieldOrder(t *testing.T) {
	req := QueryRequest{
		PartnerCode: "PC",
		RequestID:   "req-1",
		OrderID:     "7-req-1",
	}

	assert.Equal(t, "accessKey=AK&orderId=7-req-1&partnerCode=PC&requestId=req-1", queryRawSignature("AK", req))
}

func TestVerifySignature(t *testing.T) {
	raw := "accessKey=AK&orderId=1&partnerCode=PC&requestId=r"
	good := Sign("secret", raw)

	assert.True(t, VerifySignature("secret", raw, good))
	assert.False(t, VerifySignature("secret", raw, good+"00"))
	assert.False(t, VerifySignature("secret", raw+"&x=1", good))
	assert.False(t, VerifySignature("wrong", raw, good))
}

func TestClientVerifyCallback(t *testing.T) {
	c := NewClient(Config{
		PartnerCode: "PC",
		AccessKey:   "AK",
		SecretKey:   "secret",
		Endpoint:    "https://test-payment.momo.vn",
	}, nil)

	cb := CallbackRequest{
		PartnerCode: "PC",
		OrderID:     "7-req-1",
		RequestID:   "req-1",
		Amount:      1030000,
		TransID:     900123,
		Message:     "Successful.",
	}
	cb.Signature = Sign("secret", callbackRawSignature("AK", cb))

	assert.True(t, c.VerifyCallback(cb))

	//金額を1でも書き換えれば署名が合わなくなる
	tampered := cb
	tampered.Amount = 1030001
	assert.False(t, c.VerifyCallback(tampered))
}
