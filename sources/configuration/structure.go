package configuration

import (
	"time"
)

type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Ingress    IngressConfig    `yaml:"ingress"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Billing    BillingConfig    `yaml:"billing"`
	Network    NetworkConfig    `yaml:"network"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
	Features   FeaturesConfig   `yaml:"features"`
}

type ServiceConfig struct {
	StartupPort            int `yaml:"startup_port"`
	SystemMetricsPort      int `yaml:"system_metrics_port"`
	ApplicationMetricsPort int `yaml:"application_metrics_port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"time_zone"`
}

type RedisConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type TelegramConfig struct {
	BotToken         string   `yaml:"bot_token"`
	PollerTimeout    int      `yaml:"poller_timeout"`
	AllowedUpdates   []string `yaml:"allowed_updates"`
	CourierChunkSize int      `yaml:"courier_chunk_size"`
	MaintainersChat  int64    `yaml:"maintainers_chat"`
}

type ProvidersConfig struct {
	OpenRouterToken string `yaml:"open_router_token"`
	OpenAIToken     string `yaml:"openai_token"`

	TextModel        string `yaml:"text_model"`
	TextAdvanced     string `yaml:"text_advanced_model"`
	TextTokenEncoder string `yaml:"text_token_encoder"`

	Midjourney AsyncProviderConfig `yaml:"midjourney"`
	Suno       AsyncProviderConfig `yaml:"suno"`
	Kling      AsyncProviderConfig `yaml:"kling"`

	ImageWeights map[string]int `yaml:"image_weights"`
}

type AsyncProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type IngressConfig struct {
	Port        int    `yaml:"port"`
	CallbackURL string `yaml:"callback_url"`
}

type ReconcilerConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	PendingTimeout time.Duration `yaml:"pending_timeout"`
}

type BillingConfig struct {
	ResetCheckInterval time.Duration `yaml:"reset_check_interval"`
}

type NetworkConfig struct {
	ProxyAddress   string `yaml:"proxy_address"`
	ProxyUser      string `yaml:"proxy_user"`
	ProxyPass      string `yaml:"proxy_pass"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ThrottleConfig struct {
	Limit time.Duration `yaml:"limit"`
}

type FeaturesConfig struct {
	APIURL          string        `yaml:"api_url"`
	InstanceID      string        `yaml:"instance_id"`
	AppName         string        `yaml:"app_name"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}
