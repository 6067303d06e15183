package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("CRYPTO_MASTER_KEY", testMasterKey)
	t.Setenv("MAINTENANCE_CRON_SECRET", "cron-secret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.False(t, cfg.HTTP.EnableHTTPS)
	assert.Equal(t, "http://localhost:8080", cfg.HTTP.BaseURL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "ClovaLink", cfg.Auth.TOTPIssuer)
	assert.Equal(t, "localhost", cfg.WebAuthn.RPID)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.WebAuthn.RPOrigins)
	assert.Equal(t, 300, cfg.WebAuthn.CeremonyTTL)
	assert.Equal(t, 60, cfg.Maintenance.SweepIntervalMin)
	assert.Equal(t, 3, cfg.Maintenance.LinkRetentionDays)
	assert.Equal(t, 90, cfg.Maintenance.ActivityTTLDays)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("CRYPTO_MASTER_KEY", testMasterKey)
	t.Setenv("MAINTENANCE_CRON_SECRET", "cron-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("WEBAUTHN_RP_ORIGINS", "https://app.example.com,https://example.com")
	t.Setenv("AUTH_BCRYPT_COST", "12")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://example.com"}, cfg.WebAuthn.RPOrigins)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestNewConfig_MissingMasterKey(t *testing.T) {
	t.Setenv("MAINTENANCE_CRON_SECRET", "cron-secret")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestDecodedMasterKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid 32 bytes", key: testMasterKey},
		{name: "not hex", key: "zz" + testMasterKey[2:], wantErr: true},
		{name: "too short", key: strings.Repeat("ab", 16), wantErr: true},
		{name: "too long", key: strings.Repeat("ab", 33), wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Crypto.MasterKey = tt.key

			key, err := cfg.DecodedMasterKey()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, 32)
		})
	}
}
