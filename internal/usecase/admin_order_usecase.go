package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// AdminOrderUsecase は管理者による注文操作を担当する。
// 配送軸の遷移と返金。どちらも監査ログに残す。
type AdminOrderUsecase struct {
	tx            repo.TransactionManager
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	paymentRepo   repo.PaymentRepository
	auditLogRepo  repo.AuditLogRepository
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	paymentRepo repo.PaymentRepository,
	auditLogRepo repo.AuditLogRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:            tx,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		paymentRepo:   paymentRepo,
		auditLogRepo:  auditLogRepo,
	}
}

// List は管理者用の注文一覧。
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, nil))
	}
	return OrderListOutput{Orders: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type UpdateOrderStatusInput struct {
	AdminUserID int64
	OrderID     int64
	ToStatusID  int64
}

// UpdateStatus は配送軸を進める。遷移表に無い辺は400、
// ガード付き更新で競り負けたら409。CANCELLEDに入れたときは在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, in UpdateOrderStatusInput) error {
	if in.OrderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	from := order.OrderStatusID
	if !model.CanTransitOrderStatus(from, in.ToStatusID) {
		return NewHTTPError(http.StatusBadRequest, "invalid status transition")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Orders().UpdateOrderStatus(ctx, order.ID, from, in.ToStatusID)
		if err == repo.ErrStaleStatus {
			return NewHTTPError(http.StatusConflict, "order status changed")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//キャンセルは引き当て済みの在庫を戻す
		if in.ToStatusID == model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.VariantID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	before, _ := json.Marshal(map[string]string{"order_status": model.OrderStatusName(from)})
	after, _ := json.Marshal(map[string]string{"order_status": model.OrderStatusName(in.ToStatusID)})
	_ = u.auditLogRepo.Create(ctx, model.AuditLog{
		ActorUserID:  in.AdminUserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
	})
	return nil
}

// 決済試行の履歴つき。
type AdminOrderDetailOutput struct {
	Order    OrderOutput     `json:"order"`
	Payments []model.Payment `json:"payments"`
}

// GetDetail は管理者用の注文詳細。明細と決済試行の履歴も併せて返す。
func (u *AdminOrderUsecase) GetDetail(ctx context.Context, orderID int64) (AdminOrderDetailOutput, error) {
	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return AdminOrderDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return AdminOrderDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return AdminOrderDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	payments, err := u.paymentRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return AdminOrderDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AdminOrderDetailOutput{
		Order:    toOrderOutput(order, items),
		Payments: payments,
	}, nil
}

// ListAuditLogs は監査ログの一覧。絞り込みはフィルタに委ねる。
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	logs, err := u.auditLogRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

type RefundInput struct {
	AdminUserID int64
	OrderID     int64
}

// RefundPayment はPAID→REFUNDEDの遷移。
// ゲートウェイへの返金依頼そのものは外部のオペレーション。
// ここでは台帳側の状態だけ動かして監査に残す。
func (u *AdminOrderUsecase) RefundPayment(ctx context.Context, in RefundInput) error {
	if in.OrderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !model.CanTransitPaymentStatus(order.PaymentStatus, model.PaymentStatusRefunded) {
		return NewHTTPError(http.StatusBadRequest, "order is not refundable")
	}

	err = u.orderRepo.UpdatePaymentStatus(ctx, order.ID, model.PaymentStatusPaid, model.PaymentStatusRefunded)
	if err == repo.ErrStaleStatus {
		return NewHTTPError(http.StatusConflict, "payment status changed")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//どのゲートウェイトランザクションを返したかを監査に残す
	transID := ""
	if p, ok, perr := u.paymentRepo.FindCompletedByOrderID(ctx, order.ID); perr == nil && ok {
		transID = p.TransID
	}

	before, _ := json.Marshal(map[string]string{"payment_status": string(model.PaymentStatusPaid)})
	after, _ := json.Marshal(map[string]string{
		"payment_status": string(model.PaymentStatusRefunded),
		"trans_id":       transID,
	})
	_ = u.auditLogRepo.Create(ctx, model.AuditLog{
		ActorUserID:  in.AdminUserID,
		Action:       model.AuditActionUpdatePaymentStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
	})
	return nil
}
