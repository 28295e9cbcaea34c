package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"shop/internal/domain/model"
	"shop/internal/gateway/momo"
	repo "shop/internal/repository"
)

// ゲートウェイ呼び出しの約束。テストではフェイクに差し替える。
type GatewayClient interface {
	CreatePayment(ctx context.Context, in momo.CreateInput) (momo.CreateResponse, error)
	QueryStatus(ctx context.Context, requestID string, orderID string) (momo.QueryResponse, error)
	VerifyCallback(cb momo.CallbackRequest) bool
}

// PaymentUsecase は決済の開始と消込を担当する。
// 消込はコールバック経由でもポーリング経由でも同じコアを通す。
type PaymentUsecase struct {
	tx           repo.TransactionManager
	orderRepo    repo.OrderRepository
	paymentRepo  repo.PaymentRepository
	auditLogRepo repo.AuditLogRepository
	gateway      GatewayClient
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	paymentRepo repo.PaymentRepository,
	auditLogRepo repo.AuditLogRepository,
	gateway GatewayClient,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:           tx,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		auditLogRepo: auditLogRepo,
		gateway:      gateway,
	}
}

// 注文を見てよい相手か（会員本人 or 照会トークンの持ち主）。
type OrderRequester struct {
	UserID      *int64
	AccessToken string
}

type StartPaymentInput struct {
	OrderID   int64
	Requester OrderRequester
}

type StartPaymentOutput struct {
	PayURL    string `json:"pay_url"`
	Deeplink  string `json:"deeplink,omitempty"`
	RequestID string `json:"request_id"`
}

type PaymentStatusOutput struct {
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	ResultCode    int    `json:"result_code"`
	Message       string `json:"message,omitempty"`
}

// StartPayment はゲートウェイにcreate paymentを投げてpayUrlを返す。
// requestIdとゲートウェイ側orderIdは試行ごとに新しく採番する。
// 失敗した試行をやり直しても、前の試行のIDと衝突しない。
func (u *PaymentUsecase) StartPayment(ctx context.Context, in StartPaymentInput) (StartPaymentOutput, error) {
	order, err := u.authorizedOrder(ctx, in.OrderID, in.Requester)
	if err != nil {
		return StartPaymentOutput{}, err
	}

	if order.PaymentMethod != model.PaymentMethodMomo {
		return StartPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "payment method is not momo")
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return StartPaymentOutput{}, NewHTTPError(http.StatusConflict, "payment already settled")
	}

	requestID := uuid.NewString()
	gatewayOrderID := fmt.Sprintf("%d-%s", order.ID, requestID)

	resp, err := u.gateway.CreatePayment(ctx, momo.CreateInput{
		RequestID: requestID,
		OrderID:   gatewayOrderID,
		Amount:    order.TotalAmount,
		OrderInfo: fmt.Sprintf("order #%d", order.ID),
		ExtraData: "",
	})
	if err != nil {
		//通信失敗はリトライ可能として503、ゲートウェイの拒否は502
		if errors.Is(err, momo.ErrNetwork) {
			return StartPaymentOutput{}, NewHTTPError(http.StatusServiceUnavailable, "gateway unreachable")
		}
		var ge *momo.GatewayError
		if errors.As(err, &ge) {
			return StartPaymentOutput{}, NewHTTPError(http.StatusBadGateway, "gateway rejected request")
		}
		return StartPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "payment error")
	}

	//照会フォールバック用に直近の試行を覚えておく
	if err := u.orderRepo.UpdatePaymentRef(ctx, order.ID, gatewayOrderID); err != nil {
		return StartPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return StartPaymentOutput{
		PayURL:    resp.PayURL,
		Deeplink:  resp.Deeplink,
		RequestID: requestID,
	}, nil
}

// HandleCallback はIPNを消し込む。
// errorを返すのは署名不一致（400）とDB障害（500。ゲートウェイに再送させる）だけ。
// 金額不一致・重複・古い遷移は監査に残したうえで正常応答する
// （エラーを返すとゲートウェイが同じものを再送し続ける）。
func (u *PaymentUsecase) HandleCallback(ctx context.Context, cb momo.CallbackRequest, rawBody []byte) error {
	if !u.gateway.VerifyCallback(cb) {
		u.audit(ctx, model.AuditActionSignatureRejected, model.AuditResourcePayment, 0,
			"", string(rawBody))
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	orderID, ok := internalOrderID(cb.OrderID)
	if !ok {
		u.audit(ctx, model.AuditActionIntegrityIncident, model.AuditResourcePayment, 0,
			"", string(rawBody))
		return nil
	}

	return u.reconcile(ctx, reconcileInput{
		OrderID:    orderID,
		TransID:    strconv.FormatInt(cb.TransID, 10),
		Amount:     cb.Amount,
		ResultCode: cb.ResultCode,
		Message:    cb.Message,
		RawPayload: string(rawBody),
	})
}

// PollStatus はIPNが届かなかったときのフォールバック。
// 直近の試行をゲートウェイへ照会し、結果が出ていれば同じコアで消し込む。
func (u *PaymentUsecase) PollStatus(ctx context.Context, orderID int64, requester OrderRequester) (PaymentStatusOutput, error) {
	order, err := u.authorizedOrder(ctx, orderID, requester)
	if err != nil {
		return PaymentStatusOutput{}, err
	}

	out := PaymentStatusOutput{
		OrderID:       order.ID,
		PaymentStatus: string(order.PaymentStatus),
	}

	//消込済みなら照会しない
	if order.PaymentStatus != model.PaymentStatusPending {
		return out, nil
	}
	//まだ決済を開始していない
	if order.LastPaymentRef == "" {
		return out, nil
	}

	requestID, ok := requestIDOfRef(order.LastPaymentRef)
	if !ok {
		return out, nil
	}

	resp, err := u.gateway.QueryStatus(ctx, requestID, order.LastPaymentRef)
	if err != nil {
		if errors.Is(err, momo.ErrNetwork) {
			return PaymentStatusOutput{}, NewHTTPError(http.StatusServiceUnavailable, "gateway unreachable")
		}
		return PaymentStatusOutput{}, NewHTTPError(http.StatusBadGateway, "gateway error")
	}

	//transIdが未採番なら取引はまだ確定していない
	if resp.TransID != 0 {
		raw, _ := json.Marshal(resp)
		if err := u.reconcile(ctx, reconcileInput{
			OrderID:    order.ID,
			TransID:    strconv.FormatInt(resp.TransID, 10),
			Amount:     resp.Amount,
			ResultCode: resp.ResultCode,
			Message:    resp.Message,
			RawPayload: string(raw),
		}); err != nil {
			return PaymentStatusOutput{}, err
		}

		refreshed, err := u.orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return PaymentStatusOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.PaymentStatus = string(refreshed.PaymentStatus)
	}

	out.ResultCode = resp.ResultCode
	out.Message = resp.Message
	return out, nil
}

type reconcileInput struct {
	OrderID    int64
	TransID    string
	Amount     int64
	ResultCode int
	Message    string
	RawPayload string
}

// 消込のコア。コールバックでもポーリングでもここを通る。
// 順序は 重複判定 → 金額照合 → ガード付き遷移 → 決済記録＋監査。
func (u *PaymentUsecase) reconcile(ctx context.Context, in reconcileInput) error {
	//同じtrans_idを処理済みなら何もしない（再配送）
	_, found, err := u.paymentRepo.FindByTransID(ctx, in.TransID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		return nil
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if err == repo.ErrNotFound {
		//存在しない注文への通知。記録だけ残して応答は正常
		u.audit(ctx, model.AuditActionIntegrityIncident, model.AuditResourcePayment, in.OrderID,
			"", in.RawPayload)
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//金額は注文作成時に凍結したtotal_amountと照合する
	if in.Amount != order.TotalAmount {
		before, _ := json.Marshal(map[string]int64{"expected_amount": order.TotalAmount})
		u.audit(ctx, model.AuditActionIntegrityIncident, model.AuditResourcePayment, order.ID,
			string(before), in.RawPayload)
		return nil
	}

	to := model.PaymentStatusPaid
	txnStatus := model.PaymentTxnCompleted
	if in.ResultCode != 0 {
		to = model.PaymentStatusFailed
		txnStatus = model.PaymentTxnFailed
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Orders().UpdatePaymentStatus(ctx, order.ID, model.PaymentStatusPending, to)
		if err == repo.ErrStaleStatus {
			//他の経路が先に消し込んでいる。上書きしない
			return errStaleReconcile
		}
		if err != nil {
			return err
		}

		_, err = r.Payments().Create(ctx, model.Payment{
			OrderID:    order.ID,
			TransID:    in.TransID,
			Amount:     in.Amount,
			Status:     txnStatus,
			Message:    in.Message,
			RawPayload: in.RawPayload,
		})
		return err
	})

	if err == errStaleReconcile {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before, _ := json.Marshal(map[string]string{"payment_status": string(model.PaymentStatusPending)})
	after, _ := json.Marshal(map[string]string{"payment_status": string(to), "trans_id": in.TransID})
	u.audit(ctx, model.AuditActionUpdatePaymentStatus, model.AuditResourceOrder, order.ID,
		string(before), string(after))
	return nil
}

var errStaleReconcile = errors.New("reconcile: stale")

func (u *PaymentUsecase) authorizedOrder(ctx context.Context, orderID int64, req OrderRequester) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if req.UserID != nil && order.UserID != nil && *req.UserID == *order.UserID {
		return order, nil
	}
	if req.AccessToken != "" && order.AccessToken == req.AccessToken {
		return order, nil
	}
	//存在は漏らさない
	return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
}

// 監査ログ書き込みの失敗で本処理は止めない。
func (u *PaymentUsecase) audit(ctx context.Context, action model.AuditAction, resource model.AuditResourceType, resourceID int64, beforeJSON string, afterJSON string) {
	_ = u.auditLogRepo.Create(ctx, model.AuditLog{
		ActorUserID:  0,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
	})
}

// ゲートウェイ側orderId（"<内部ID>-<requestId>"）から内部IDを取り出す。
func internalOrderID(gatewayOrderID string) (int64, bool) {
	head, _, found := strings.Cut(gatewayOrderID, "-")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ゲートウェイ側orderIdからrequestId部分を取り出す。
func requestIDOfRef(ref string) (string, bool) {
	_, tail, found := strings.Cut(ref, "-")
	if !found || tail == "" {
		return "", false
	}
	return tail, true
}
