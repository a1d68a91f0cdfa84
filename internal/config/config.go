package config

import "fmt"

// Configはアプリ全体の設定。環境変数から読む。
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	//DATABASE_URLがあれば個別のPOSTGRES_*より優先
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	JWTSecret string `env:"JWT_SECRET"`

	//この回数以上キャンセルしたユーザーは新規注文を止める
	FraudThreshold int64 `env:"FRAUD_THRESHOLD" envDefault:"3"`

	//1トランザクションの実行上限（秒）
	TxTimeoutSeconds int `env:"TX_TIMEOUT_SECONDS" envDefault:"5"`

	GoEnv string `env:"GO_ENV" envDefault:"dev"`
	FEURL string `env:"FE_URL"` // フロントURL（CORSで使う）
}

// 必須チェック
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.PostgresPassword == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if c.FraudThreshold < 0 {
		return fmt.Errorf("FRAUD_THRESHOLD must be >= 0")
	}
	return nil
}
