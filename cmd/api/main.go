package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/gateway/momo"
	"shop/internal/handler"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/mail"
	"shop/internal/server"
	"shop/internal/usecase"

	"github.com/joho/godotenv"
)

// ゲスト照会トークン。32バイトの乱数をhexで。
type randomTokenIssuer struct{}

func (g *randomTokenIssuer) Issue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// 注文確定時の送料（一律）
const defaultShippingFee int64 = 30000

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Discount{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	discountRepo := infraRepo.NewDiscountGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//ゲートウェイクライアント
	gateway := momo.NewClient(momo.Config{
		PartnerCode: cfg.Momo.PartnerCode,
		AccessKey:   cfg.Momo.AccessKey,
		SecretKey:   cfg.Momo.SecretKey,
		Endpoint:    cfg.Momo.Endpoint,
		RedirectURL: cfg.Momo.RedirectURL,
		IpnURL:      cfg.Momo.IpnURL,
		Timeout:     cfg.Momo.Timeout,
	}, nil)

	//usecaseに渡す部品
	tokens := &randomTokenIssuer{}
	mailer := mail.NewLogMailer()

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, txManager)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, cartRepo, cartItemRepo, discountRepo, tokens, defaultShippingFee)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, paymentRepo, auditLogRepo, gateway)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo, mailer)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, orderItemRepo, paymentRepo, auditLogRepo)

	//Handler生成
	handlers := server.Handlers{
		Cart:       handler.NewCartHandler(cartUC),
		Checkout:   handler.NewCheckoutHandler(checkoutUC),
		Payment:    handler.NewPaymentHandler(paymentUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	}

	//Server起動
	e := server.New(cfg, handlers, userRepo)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
