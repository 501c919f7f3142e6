package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Type)
	require.Equal(t, 30*time.Minute, cfg.RepoCache.TTL)
	require.True(t, cfg.Settlement.SnapshotOnClose)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	t.Setenv("ACCESS_ALLOWED_ORGANIZATIONS", "acme, globex")

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
APP_ENV: production
DATABASE:
  TYPE: postgres
  HOST: db.internal
REPO_CACHE:
  TTL: 5m
`)))

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, "postgres", cfg.Database.Type)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 5*time.Minute, cfg.RepoCache.TTL)
	require.Equal(t, "acme, globex", cfg.Access.AllowedOrganizations)
}
