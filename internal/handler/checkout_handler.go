package handler

import (
	"net/http"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkoutのHTTP。ステップを1つずつ進める。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type AddressRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`

	//ゲスト購入者の連絡先（会員は不要）
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`
}

type PaymentMethodRequest struct {
	Method       string `json:"method"`
	DiscountCode string `json:"discount_code"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/checkout")
	g.Use(middleware.OptionalAuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/address", h.address)
	g.POST("/payment-method", h.paymentMethod)
	g.GET("/review", h.review)
	g.POST("/complete", h.complete)
	g.POST("/cancel", h.cancel)
}

func (h *CheckoutHandler) address(c echo.Context) error {
	owner, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.uc.SubmitAddress(c.Request().Context(), owner, usecase.AddressInput{
		Shipping: model.ShippingAddress{
			Name:       req.Name,
			Phone:      req.Phone,
			Line1:      req.Line1,
			Line2:      req.Line2,
			City:       req.City,
			Province:   req.Province,
			PostalCode: req.PostalCode,
		},
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "address saved"})
}

func (h *CheckoutHandler) paymentMethod(c echo.Context) error {
	owner, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.uc.ChoosePaymentMethod(c.Request().Context(), owner, usecase.PaymentMethodInput{
		Method:       req.Method,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "payment method saved"})
}

func (h *CheckoutHandler) review(c echo.Context) error {
	owner, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Review(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) complete(c echo.Context) error {
	owner, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Complete(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	owner, ok := ownerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Cancel(c.Request().Context(), owner); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "checkout cancelled"})
}
