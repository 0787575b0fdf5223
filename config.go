package wsrouter

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHostname = "localhost"
	DefaultPort     = 8080
)

// Config is an already-loaded configuration map. Keys are matched without
// regard to case, at the top level first and then under a "server" section.
type Config map[string]any

// LoadConfig reads a YAML or JSON configuration file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Lookup finds key at the top level or inside the server section.
func (cfg Config) Lookup(key string) (any, bool) {
	if v, ok := lookupFold(cfg, key); ok {
		return v, true
	}
	section, ok := lookupFold(cfg, "server")
	if !ok {
		return nil, false
	}
	switch m := section.(type) {
	case map[string]any:
		return lookupFold(m, key)
	case Config:
		return lookupFold(m, key)
	}
	return nil, false
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func (cfg Config) Value(key string) string {
	v, ok := cfg.Lookup(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (cfg Config) Hostname() string {
	if host := cfg.Value("hostname"); host != "" {
		return host
	}
	return DefaultHostname
}

// Port falls back to DefaultPort when the value is missing or not a valid port.
func (cfg Config) Port() int {
	raw := cfg.Value("port")
	if raw == "" {
		return DefaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 0 || port > 65535 {
		return DefaultPort
	}
	return port
}

func (cfg Config) CertFile() string {
	return cfg.Value("certfile")
}

func (cfg Config) KeyFile() string {
	return cfg.Value("keyfile")
}

func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Hostname(), strconv.Itoa(cfg.Port()))
}
