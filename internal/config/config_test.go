package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("ALLOWED_NAMESPACES", " team-a, ,team-b ")
	t.Setenv("GRAFANA_URL", "https://grafana.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 15*time.Minute, cfg.PendingTokenExpiry)
	assert.Equal(t, []string{"team-a", "team-b"}, cfg.AllowedNamespaces)
	assert.Equal(t, "https://grafana.example.com", cfg.GrafanaURL)
	assert.Equal(t, "kubernetes-app", cfg.GrafanaDashboardSlug)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{JWTSecret: "x", DBDriver: "sqlite"}},
		{name: "empty secret", cfg: Config{JWTSecret: " ", DBDriver: "sqlite"}, wantErr: true},
		{name: "dev secret in release", cfg: Config{GinMode: "release", JWTSecret: DevJWTSecret, DBDriver: "postgres"}, wantErr: true},
		{name: "dev secret in debug", cfg: Config{GinMode: "debug", JWTSecret: DevJWTSecret, DBDriver: "postgres"}},
		{name: "bad driver", cfg: Config{JWTSecret: "x", DBDriver: "mysql"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNamespaceAllowed(t *testing.T) {
	open := &Config{}
	assert.True(t, open.NamespaceAllowed("anything"))

	guarded := &Config{AllowedNamespaces: []string{"team-a"}}
	assert.True(t, guarded.NamespaceAllowed("team-a"))
	assert.False(t, guarded.NamespaceAllowed("kube-system"))
}
