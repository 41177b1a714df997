package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个前端进程的配置项。
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Push    PushConfig
	Storage StorageConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	api, err := loadAPIConfig()
	if err != nil {
		return nil, err
	}

	push, err := loadPushConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		API:     api,
		Push:    push,
		Storage: StorageConfig{DataDir: getEnvOrDefault("FORUM_DATA_DIR", ".forum")},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

// ServerConfig 描述本地 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// APIConfig 描述外部论坛 API 的访问方式。
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// PushConfig 描述推送通道(WebSocket)的重连策略。
type PushConfig struct {
	URL        string
	MaxRetries int
	BaseDelay  time.Duration
}

// StorageConfig 描述客户端会话存储位置。
type StorageConfig struct {
	DataDir string
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadAPIConfig() (APIConfig, error) {
	baseURL := getEnvOrDefault("FORUM_API_URL", "http://localhost:8000")
	if err := validateURL("FORUM_API_URL", baseURL, "http", "https"); err != nil {
		return APIConfig{}, err
	}

	timeout := 10
	if override, err := parseOptionalIntEnv("FORUM_API_TIMEOUT"); err != nil {
		return APIConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	rps := 10.0
	if override, err := parseOptionalFloatEnv("FORUM_API_RPS"); err != nil {
		return APIConfig{}, err
	} else if override != nil && *override > 0 {
		rps = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("FORUM_API_BURST"); err != nil {
		return APIConfig{}, err
	} else if override != nil && *override > 0 {
		burst = *override
	}

	return APIConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: time.Duration(timeout) * time.Second,
		RPS:     rps,
		Burst:   burst,
	}, nil
}

func loadPushConfig() (PushConfig, error) {
	wsURL := getEnvOrDefault("FORUM_WS_URL", "ws://localhost:8000/ws/questions")
	if err := validateURL("FORUM_WS_URL", wsURL, "ws", "wss"); err != nil {
		return PushConfig{}, err
	}

	maxRetries := 3
	if override, err := parseOptionalIntEnv("FORUM_WS_MAX_RETRIES"); err != nil {
		return PushConfig{}, err
	} else if override != nil {
		if *override < 0 {
			maxRetries = 0
		} else {
			maxRetries = *override
		}
	}

	backoffMS := 1000
	if override, err := parseOptionalIntEnv("FORUM_WS_BACKOFF_MS"); err != nil {
		return PushConfig{}, err
	} else if override != nil && *override > 0 {
		backoffMS = *override
	}

	return PushConfig{
		URL:        wsURL,
		MaxRetries: maxRetries,
		BaseDelay:  time.Duration(backoffMS) * time.Millisecond,
	}, nil
}

func validateURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s value %q: expected %s URL", key, raw, strings.Join(schemes, "/"))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
