package config

import (
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Settings struct {
	ServerPort string `env:"SERVER_PORT,default=3000"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO"`

	PostgresHost     string `env:"POSTGRES_HOST,required=true"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresUser     string `env:"POSTGRES_USER,required=true"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,required=true"`
	PostgresDB       string `env:"POSTGRES_DB,required=true"`

	RedisHost      string `env:"REDIS_HOST,required=true"`
	RedisPort      string `env:"REDIS_PORT,default=6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB,default=0"`
	RedisAdapterDB int    `env:"REDIS_ADAPTER_DB,default=1"`

	RabbitMQHost     string `env:"RABBITMQ_HOST,required=true"`
	RabbitMQPort     string `env:"RABBITMQ_PORT,default=5672"`
	RabbitMQUser     string `env:"RABBITMQ_USER,required=true"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD,required=true"`

	JWTAccessKey     string `env:"JWT_ACCESS_KEY,required=true"`
	JWTRefreshKey    string `env:"JWT_REFRESH_KEY,required=true"`
	JWTAccessExpire  int    `env:"JWT_ACCESS_EXPIRE,default=15"`
	JWTRefreshExpire int    `env:"JWT_REFRESH_EXPIRE,default=43200"`

	SessionTTL        time.Duration `env:"SESSION_TTL,default=720h"`
	SessionStaleAfter time.Duration `env:"SESSION_STALE_AFTER,default=2160h"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=15m"`
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL,default=24h"`

	EscalationDelay    time.Duration `env:"ESCALATION_DELAY,default=5s"`
	EscalationCooldown time.Duration `env:"ESCALATION_COOLDOWN,default=5s"`
	EscalationTick     time.Duration `env:"ESCALATION_TICK,default=250ms"`
	UnreadCacheTTL     time.Duration `env:"UNREAD_CACHE_TTL,default=1m"`

	OtpIssuer    string `env:"OTP_ISSUER,default=messenger"`
	PasswordCost int    `env:"PASSWORD_COST,default=12"`
	CasbinModel  string `env:"CASBIN_MODEL,default=config/restful_rbac_model.conf"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Settings, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var s Settings
	if _, err := env.UnmarshalFromEnviron(&s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if s.RedisDB == s.RedisAdapterDB {
		return nil, fmt.Errorf("config: REDIS_DB and REDIS_ADAPTER_DB must differ")
	}
	return &s, nil
}

func (s *Settings) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		s.PostgresHost,
		s.PostgresPort,
		s.PostgresUser,
		s.PostgresPassword,
		s.PostgresDB,
	)
}

func (s *Settings) RedisAddr() string {
	return fmt.Sprintf("%s:%s", s.RedisHost, s.RedisPort)
}

func (s *Settings) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		s.RabbitMQUser,
		s.RabbitMQPassword,
		s.RabbitMQHost,
		s.RabbitMQPort,
	)
}

func (s *Settings) AccessTTL() time.Duration {
	return time.Duration(s.JWTAccessExpire) * time.Minute
}

func (s *Settings) RefreshTTL() time.Duration {
	return time.Duration(s.JWTRefreshExpire) * time.Minute
}
