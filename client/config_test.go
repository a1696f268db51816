package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Path != "/chat" || cfg.PingInterval != 5*time.Second || cfg.ReadTimeout != 10*time.Second {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	body := "host: https://game.example\nping_interval: 2s\nread_timeout: 6s\nsend_queue: 8\njournal_dir: /tmp/frames\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CLICKBATTLER_SEND_QUEUE", "16")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "https://game.example" || cfg.PingInterval != 2*time.Second || cfg.ReadTimeout != 6*time.Second {
		t.Fatalf("file values: %+v", cfg)
	}
	if cfg.SendQueue != 16 {
		t.Fatalf("env override: send_queue=%d", cfg.SendQueue)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Fatalf("unset field lost its default: %v", cfg.WriteTimeout)
	}
	endpoint, err := cfg.Endpoint()
	if err != nil || endpoint != "wss://game.example/chat" {
		t.Fatalf("endpoint: %q %v", endpoint, err)
	}
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("CLICKBATTLER_SEND_QUEUE", "lots")
	_, err := LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte("ping_interval: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendQueue = 0
	cfg.ReadTimeout = cfg.PingInterval
	cfg.HandshakeTimeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"send_queue", "read_timeout", "handshake_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestEndpointFromHost(t *testing.T) {
	cases := []struct {
		host, path, want string
	}{
		{"localhost:3030", "", "ws://localhost:3030/chat"},
		{"http://localhost:3030", "/chat", "ws://localhost:3030/chat"},
		{"https://game.example/index.html?x=1", "", "wss://game.example/chat"},
		{"ws://10.0.0.1:9000", "socket", "ws://10.0.0.1:9000/socket"},
		{"wss://game.example", "/chat", "wss://game.example/chat"},
	}
	for _, tc := range cases {
		got, err := EndpointFromHost(tc.host, tc.path)
		if err != nil || got != tc.want {
			t.Fatalf("%s: got %q %v want %q", tc.host, got, err, tc.want)
		}
	}
	for _, bad := range []string{"", "ftp://game.example", "http://"} {
		if _, err := EndpointFromHost(bad, ""); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestConfig_ValidateNegativeHandshakeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "localhost:3030"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with host: %v", err)
	}
	cfg.HandshakeTimeout = -time.Second
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "handshake_timeout") {
		t.Fatalf("expected handshake_timeout error, got %v", err)
	}
}
