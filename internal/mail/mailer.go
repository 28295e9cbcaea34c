package mail

import (
	"context"
	"log"
)

// メール送信は外部コラボレーター。ここでは約束と開発用の実装だけを持つ。
type Mailer interface {
	//ゲスト注文の照会トークンを送る
	SendAccessToken(ctx context.Context, email string, orderID int64, token string) error
}

type logMailer struct{}

// 開発・テスト用。送らずにログに出すだけ。
func NewLogMailer() Mailer {
	return &logMailer{}
}

func (m *logMailer) SendAccessToken(ctx context.Context, email string, orderID int64, token string) error {
	log.Printf("mail: access token for order %d -> %s", orderID, email)
	return nil
}
