package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NUMBERING_BACKEND", "Redis")
	t.Setenv("INVOICE_DEFAULT_TAX_RATE", "0.11")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.NumberingBackend)
	assert.Equal(t, "redis", cfg.CartBackend)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.True(t, decimal.RequireFromString("0.11").Equal(cfg.InvoiceDefaultTaxRate))
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"numbering": {"NUMBERING_BACKEND", "etcd"},
		"cart":      {"CART_BACKEND", "postgres"},
		"storage":   {"STORAGE_DRIVER", "gcs"},
		"s3 bucket": {"STORAGE_DRIVER", "s3"},
		"tax rate":  {"INVOICE_DEFAULT_TAX_RATE", "1.2"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("S3_BUCKET", "")
			t.Setenv(env[0], env[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInTestMode(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "true": true, " TRUE ": true, "0": false, "": false, "yes": false} {
		t.Setenv(TestModeEnv, value)
		assert.Equal(t, want, InTestMode(), "value %q", value)
	}
}
