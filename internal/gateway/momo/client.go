package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 通信とボディ解釈だけを担当する。OrderやPaymentの状態は一切触らない。

// タイムアウト・トランスポート起因の失敗。リトライ可能として扱う。
var ErrNetwork = errors.New("gateway network error")

// ゲートウェイがresultCode!=0を返したとき。
type GatewayError struct {
	ResultCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway result %d: %s", e.ResultCode, e.Message)
}

type Config struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IpnURL      string
	RequestType string
	Timeout     time.Duration
}

type Client struct {
	cfg Config
	hc  *http.Client
}

// DI
// テストではhttptestのサーバーを向いたhttp.Clientを渡す。
func NewClient(cfg Config, hc *http.Client) *Client {
	if cfg.RequestType == "" {
		cfg.RequestType = "captureWallet"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, hc: hc}
}

type CreateInput struct {
	//試行ごとに新しく採番する（注文ごとではない）
	RequestID string
	OrderID   string
	Amount    int64
	OrderInfo string
	ExtraData string
}

// create paymentを同期で呼ぶ。
// 成功（resultCode==0）ならpayUrl/deeplink入りのレスポンスを返す。
func (c *Client) CreatePayment(ctx context.Context, in CreateInput) (CreateResponse, error) {
	req := CreateRequest{
		PartnerCode: c.cfg.PartnerCode,
		RequestID:   in.RequestID,
		Amount:      in.Amount,
		OrderID:     in.OrderID,
		OrderInfo:   in.OrderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IpnURL:      c.cfg.IpnURL,
		RequestType: c.cfg.RequestType,
		ExtraData:   in.ExtraData,
		Lang:        "vi",
	}
	req.Signature = Sign(c.cfg.SecretKey, createRawSignature(c.cfg.AccessKey, req))

	var resp CreateResponse
	if err := c.post(ctx, "/v2/gateway/api/create", req, &resp); err != nil {
		return CreateResponse{}, err
	}

	if resp.ResultCode != 0 {
		return CreateResponse{}, &GatewayError{ResultCode: resp.ResultCode, Message: resp.Message}
	}
	return resp, nil
}

// 取引照会。ポーリングによる消込フォールバックで使う。
// resultCodeの解釈（0=成功/保留/失敗）は呼び出し側の消込ロジックに任せる。
func (c *Client) QueryStatus(ctx context.Context, requestID string, orderID string) (QueryResponse, error) {
	req := QueryRequest{
		PartnerCode: c.cfg.PartnerCode,
		RequestID:   requestID,
		OrderID:     orderID,
		Lang:        "vi",
	}
	req.Signature = Sign(c.cfg.SecretKey, queryRawSignature(c.cfg.AccessKey, req))

	var resp QueryResponse
	if err := c.post(ctx, "/v2/gateway/api/query", req, &resp); err != nil {
		return QueryResponse{}, err
	}
	return resp, nil
}

// コールバックの署名を再計算して照合する。
func (c *Client) VerifyCallback(cb CallbackRequest) bool {
	return VerifySignature(c.cfg.SecretKey, callbackRawSignature(c.cfg.AccessKey, cb), cb.Signature)
}

// 外向きの呼び出しは必ずタイムアウト付き。
// チェックアウトをゲートウェイ都合で無期限に待たせない。
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, httpResp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: bad response body", ErrNetwork)
	}
	return nil
}
