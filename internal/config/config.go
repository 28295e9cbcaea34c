package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ゲートウェイ関連の設定。
type MomoConfig struct {
	PartnerCode string        // パートナーコード
	AccessKey   string        // アクセスキー
	SecretKey   string        // 署名用シークレット
	Endpoint    string        // ゲートウェイのベースURL
	RedirectURL string        // 決済後に戻すURL
	IpnURL      string        // 非同期コールバックの受け口（公開URL）
	Timeout     time.Duration // 外向き呼び出しのタイムアウト
}

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先で使う接続文字列
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // sslmode

	JWTSecret string // JWT署名シークレット（検証のみ。発行は外部）

	Momo MomoConfig

	GoEnv string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	momoTimeout, err := durationOr("MOMO_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "shop"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Momo: MomoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			Endpoint:    getenv("MOMO_ENDPOINT", "https://test-payment.momo.vn"),
			RedirectURL: os.Getenv("MOMO_REDIRECT_URL"),
			IpnURL:      os.Getenv("MOMO_IPN_URL"),
			Timeout:     momoTimeout,
		},

		GoEnv: getenv("GO_ENV", "dev"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Momo.PartnerCode == "" {
		return Config{}, fmt.Errorf("MOMO_PARTNER_CODE is required")
	}
	if cfg.Momo.AccessKey == "" {
		return Config{}, fmt.Errorf("MOMO_ACCESS_KEY is required")
	}
	if cfg.Momo.SecretKey == "" {
		return Config{}, fmt.Errorf("MOMO_SECRET_KEY is required")
	}
	if cfg.Momo.RedirectURL == "" {
		return Config{}, fmt.Errorf("MOMO_REDIRECT_URL is required")
	}
	if cfg.Momo.IpnURL == "" {
		return Config{}, fmt.Errorf("MOMO_IPN_URL is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
