package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"shop/internal/config"
	"shop/internal/gateway/momo"
	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout/payment配下のHTTP。コールバックだけは認証なしの公開URL。
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type StartPaymentRequest struct {
	OrderID int64 `json:"order_id"`
}

type PaymentStatusRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	//ゲートウェイからのIPN。署名で認証するのでJWTは通さない
	e.POST("/checkout/payment/callback", h.callback)

	g := e.Group("/checkout/payment")
	g.Use(middleware.OptionalAuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.start)
	g.POST("/status", h.status)
}

// 注文主の判定材料。会員はJWT、ゲストはX-Access-Token。
func requesterFromContext(c echo.Context) usecase.OrderRequester {
	var req usecase.OrderRequester
	if userID, ok := getUserIDFromContext(c); ok {
		req.UserID = &userID
	}
	req.AccessToken = c.Request().Header.Get("X-Access-Token")
	return req
}

func (h *PaymentHandler) start(c echo.Context) error {
	var req StartPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.StartPayment(c.Request().Context(), usecase.StartPaymentInput{
		OrderID:   req.OrderID,
		Requester: requesterFromContext(c),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 署名検証に生ボディが必要なので、Bindではなく自前で読む。
// 生ペイロードはそのまま監査用に渡す。
func (h *PaymentHandler) callback(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	var cb momo.CallbackRequest
	if err := json.Unmarshal(raw, &cb); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.HandleCallback(c.Request().Context(), cb, raw); err != nil {
		return writeError(c, err)
	}

	//2xxを返せばゲートウェイは再送しない
	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

func (h *PaymentHandler) status(c echo.Context) error {
	var req PaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PollStatus(c.Request().Context(), req.OrderID, requesterFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
