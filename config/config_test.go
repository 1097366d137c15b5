package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "medassist_config.json")
	SetPath(p)
	t.Cleanup(func() {
		SetPath("./medassist_config.json")
		Set(Default())
	})
	return p
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	useTempFile(t)

	got, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	p := useTempFile(t)
	require.NoError(t, os.WriteFile(p, []byte(`{"listenAddr":":9000","currency":"EUR","maxUploadMB":4}`), 0600))
	t.Setenv("MEDASSIST_LISTEN_ADDR", ":9100")
	t.Setenv("MEDASSIST_JWT_SECRET", "s3cret")

	got, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9100", got.ListenAddr)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "s3cret", got.JWTSecret)
	assert.Equal(t, int64(4<<20), got.MaxUploadBytes())
	assert.Equal(t, "./medassist.db", got.DatabasePath)
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	p := useTempFile(t)
	require.NoError(t, os.WriteFile(p, []byte(`{`), 0600))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	useTempFile(t)

	require.NoError(t, SaveConfig(Config{Currency: "MAD", MaxUploadMB: 0}))
	assert.Equal(t, "MAD", GetConfig().Currency)
	assert.Equal(t, 10, GetConfig().MaxUploadMB)

	got, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "MAD", got.Currency)
}

func TestSaveConfigKeepsEnvOverridesOutOfFile(t *testing.T) {
	p := useTempFile(t)
	require.NoError(t, os.WriteFile(p, []byte(`{"listenAddr":":9000","currency":"EUR"}`), 0600))
	t.Setenv("MEDASSIST_LISTEN_ADDR", ":9100")
	t.Setenv("MEDASSIST_JWT_SECRET", "s3cret")

	_, err := LoadConfig()
	require.NoError(t, err)

	posted := GetConfig()
	posted.Currency = "MAD"
	require.NoError(t, SaveConfig(posted))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `":9000"`)
	assert.Contains(t, string(raw), `"MAD"`)
	assert.NotContains(t, string(raw), ":9100")
	assert.NotContains(t, string(raw), "s3cret")

	live := GetConfig()
	assert.Equal(t, ":9100", live.ListenAddr)
	assert.Equal(t, "s3cret", live.JWTSecret)
	assert.Equal(t, "MAD", live.Currency)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	c := Config{TimeZone: "Nowhere/Land"}
	assert.Equal(t, "Local", c.Location().String())
}
