package server

import (
	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ハンドラー一式。mainで組み立てて渡す。
type Handlers struct {
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Payment    *handler.PaymentHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
}

// echoを組み立ててルートを登録する。
func New(cfg config.Config, h Handlers, userRepo repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Checkout.RegisterRoutes(e, cfg, userRepo)
	h.Payment.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)

	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}
