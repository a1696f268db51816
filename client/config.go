package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config 连接与运行参数。优先级：环境变量 CLICKBATTLER_* > YAML 文件 > DefaultConfig
type Config struct {
	Host string `yaml:"host" env:"CLICKBATTLER_HOST"`
	Path string `yaml:"path" env:"CLICKBATTLER_PATH"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"CLICKBATTLER_HANDSHAKE_TIMEOUT"`
	PingInterval     time.Duration `yaml:"ping_interval" env:"CLICKBATTLER_PING_INTERVAL"`
	ReadTimeout      time.Duration `yaml:"read_timeout" env:"CLICKBATTLER_READ_TIMEOUT"`
	WriteTimeout     time.Duration `yaml:"write_timeout" env:"CLICKBATTLER_WRITE_TIMEOUT"`
	ReadLimit        int64         `yaml:"read_limit" env:"CLICKBATTLER_READ_LIMIT"`
	SendQueue        int           `yaml:"send_queue" env:"CLICKBATTLER_SEND_QUEUE"`

	LogFile    string `yaml:"log_file" env:"CLICKBATTLER_LOG_FILE"`
	LogLevel   string `yaml:"log_level" env:"CLICKBATTLER_LOG_LEVEL"`
	JournalDir string `yaml:"journal_dir" env:"CLICKBATTLER_JOURNAL_DIR"`
	AdminAddr  string `yaml:"admin_addr" env:"CLICKBATTLER_ADMIN_ADDR"`
}

// DefaultConfig 与服务端心跳一致：每 5s ping 一次，10s 无响应断开
func DefaultConfig() Config {
	return Config{
		Host:             "localhost:3030",
		Path:             "/chat",
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     5 * time.Second,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadLimit:        1 << 20, // 1MB
		SendQueue:        64,
		LogLevel:         "info",
	}
}

// LoadConfig 在默认值上叠加 path（可为空）与环境变量
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate 校验传输层无法运行的配置
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.HandshakeTimeout <= 0 {
		errs = append(errs, errors.New("handshake_timeout must be positive"))
	}
	if c.PingInterval <= 0 {
		errs = append(errs, errors.New("ping_interval must be positive"))
	}
	if c.ReadTimeout <= c.PingInterval {
		errs = append(errs, errors.New("read_timeout must exceed ping_interval"))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("write_timeout must be positive"))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.SendQueue <= 0 {
		errs = append(errs, errors.New("send_queue must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Endpoint 由 Host 与 Path 生成 websocket 地址
func (c Config) Endpoint() (string, error) {
	return EndpointFromHost(c.Host, c.Path)
}

// EndpointFromHost 页面地址转 websocket 地址：http → ws，https → wss，
// 不带协议的 host:port 视为 ws://host:port；path 默认 /chat
func EndpointFromHost(host, path string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("endpoint: empty host")
	}
	if !strings.Contains(host, "://") {
		host = "ws://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint: no host in %q", host)
	}
	if path == "" {
		path = "/chat"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
