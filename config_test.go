package wsrouter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		hostname string
		port     int
		addr     string
	}{
		{
			name:     "defaults",
			raw:      "",
			hostname: DefaultHostname,
			port:     DefaultPort,
			addr:     "localhost:8080",
		},
		{
			name:     "top_level_yaml",
			raw:      "hostname: 0.0.0.0\nport: 9000\n",
			hostname: "0.0.0.0",
			port:     9000,
			addr:     "0.0.0.0:9000",
		},
		{
			name:     "keys_ignore_case",
			raw:      "HOSTNAME: example.test\nPort: 81\n",
			hostname: "example.test",
			port:     81,
			addr:     "example.test:81",
		},
		{
			name:     "server_section",
			raw:      "Server:\n  hostname: 127.0.0.1\n  PORT: 7000\n",
			hostname: "127.0.0.1",
			port:     7000,
			addr:     "127.0.0.1:7000",
		},
		{
			name:     "json",
			raw:      `{"server": {"hostname": "::1", "port": 8443}}`,
			hostname: "::1",
			port:     8443,
			addr:     "[::1]:8443",
		},
		{
			name:     "invalid_port_uses_default",
			raw:      "port: http\n",
			hostname: DefaultHostname,
			port:     DefaultPort,
			addr:     "localhost:8080",
		},
		{
			name:     "out_of_range_port_uses_default",
			raw:      "port: 70000\n",
			hostname: DefaultHostname,
			port:     DefaultPort,
			addr:     "localhost:8080",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := ParseConfig([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.hostname, cfg.Hostname())
			assert.Equal(t, tt.port, cfg.Port())
			assert.Equal(t, tt.addr, cfg.Addr())
		})
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestConfig_TopLevelWinsOverSection(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte("port: 1000\nserver:\n  port: 2000\n"))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Port())

	_, ok := cfg.Lookup("missing")
	assert.False(t, ok)
	assert.Empty(t, cfg.Value("missing"))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "server:\n  hostname: localhost\n  port: 8443\n  certFile: cert.pem\n  keyFile: key.pem\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cert.pem", cfg.CertFile())
	assert.Equal(t, "key.pem", cfg.KeyFile())
	assert.Equal(t, "localhost:8443", cfg.Addr())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
