package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, Config{
		Port:            "8080",
		DBURL:           "chat.db",
		Migrate:         true,
		ClientBuffer:    64,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		PersistTimeout:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}, cfg)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name: "overrides",
			env: map[string]string{
				"PORT":          "9000",
				"DB_URL":        "postgres://chat@localhost/chat",
				"MIGRATE":       "false",
				"CLIENT_BUFFER": "8",
				"PING_INTERVAL": "1m",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "9000", cfg.Port)
				assert.Equal(t, "postgres://chat@localhost/chat", cfg.DBURL)
				assert.False(t, cfg.Migrate)
				assert.Equal(t, 8, cfg.ClientBuffer)
				assert.Equal(t, time.Minute, cfg.PingInterval)
			},
		},
		{name: "bad duration", env: map[string]string{"WRITE_TIMEOUT": "soon"}, wantErr: true},
		{name: "bad bool", env: map[string]string{"MIGRATE": "maybe"}, wantErr: true},
		{name: "zero buffer", env: map[string]string{"CLIENT_BUFFER": "0"}, wantErr: true},
		{name: "negative timeout", env: map[string]string{"PERSIST_TIMEOUT": "-1s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Parse()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
