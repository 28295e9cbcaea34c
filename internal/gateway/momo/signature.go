package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// 署名はkey=value&...をHMAC-SHA256したhex。
// フィールドの並びはゲートウェイの仕様で固定されていて、
// 1バイトでもずれると相手側で黙って弾かれる。並びを変えないこと。

// create payment用の生文字列。
func createRawSignature(accessKey string, req CreateRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		accessKey,
		req.Amount,
		req.ExtraData,
		req.IpnURL,
		req.OrderID,
		req.OrderInfo,
		req.PartnerCode,
		req.RedirectURL,
		req.RequestID,
		req.RequestType,
	)
}

// IPN（コールバック）用の生文字列。createとは並びも項目も違う。
func callbackRawSignature(accessKey string, cb CallbackRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		accessKey,
		cb.Amount,
		cb.ExtraData,
		cb.Message,
		cb.OrderID,
		cb.OrderInfo,
		cb.OrderType,
		cb.PartnerCode,
		cb.PayType,
		cb.RequestID,
		cb.ResponseTime,
		cb.ResultCode,
		cb.TransID,
	)
}

// IPNの生文字列を外から組めるように公開する。
// ゲートウェイのシミュレーターがIPNへ署名するのに使う。
func CallbackRaw(accessKey string, cb CallbackRequest) string {
	return callbackRawSignature(accessKey, cb)
}

// 取引照会用の生文字列。
func queryRawSignature(accessKey string, req QueryRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		accessKey,
		req.OrderID,
		req.PartnerCode,
		req.RequestID,
	)
}

// HMAC-SHA256のhexダイジェスト。
func Sign(secretKey string, raw string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// 受信署名の照合。必ずこちらで再計算して比較する
// （相手の申告するダイジェストを正とはしない）。
func VerifySignature(secretKey string, raw string, signature string) bool {
	expected := Sign(secretKey, raw)
	return hmac.Equal([]byte(expected), []byte(signature))
}
