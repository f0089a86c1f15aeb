package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.Runtime)
	assert.NotNil(cfg.Offchain)
	assert.NotNil(cfg.Instrumentation)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	cfg.Genesis = "bar"
	cfg.DBPath = "/opt/data"

	assert.Equal("/foo/bar", cfg.GenesisFile())
	assert.Equal("/opt/data", cfg.DBDir())
	assert.Equal("/foo/config/author_key.json", cfg.AuthorKeyFile())
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with the offchain timeout
	cfg.Offchain.Timeout = -10 * time.Second
	assert.Error(t, cfg.ValidateBasic())
}

func TestBaseConfigValidateBasic(t *testing.T) {
	cfg := TestBaseConfig()
	assert.NoError(t, cfg.ValidateBasic())

	// tamper with log format
	cfg.LogFormat = "invalid"
	assert.Error(t, cfg.ValidateBasic())

	cfg = TestBaseConfig()
	cfg.DBBackend = "rocksdb"
	assert.Error(t, cfg.ValidateBasic())
}

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	require.NoError(t, cfg.ValidateBasic())

	assert.EqualValues(t, 6000, cfg.SlotDuration())
	assert.EqualValues(t, 4032*5*10, cfg.BondingBlocks())
	assert.EqualValues(t, 4, cfg.TreasuryFeeParts)
	assert.EqualValues(t, 1, cfg.AuthorFeeParts)
	assert.Equal(t, FeeRemainderAuthor, cfg.FeeRemainderTo)

	require.NoError(t, TestRuntimeConfig().ValidateBasic())
}

func TestRuntimeConfigValidateBasic(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*RuntimeConfig)
	}{
		{"zero fee parts", func(c *RuntimeConfig) { c.TreasuryFeeParts, c.AuthorFeeParts = 0, 0 }},
		{"bad remainder side", func(c *RuntimeConfig) { c.FeeRemainderTo = "burn" }},
		{"zero minimum period", func(c *RuntimeConfig) { c.MinimumPeriod = 0 }},
		{"zero block weight", func(c *RuntimeConfig) { c.MaximumBlockWeight = 0 }},
		{"zero block length", func(c *RuntimeConfig) { c.MaximumBlockLength = 0 }},
		{"zero hash count", func(c *RuntimeConfig) { c.BlockHashCount = 0 }},
		{"zero session period", func(c *RuntimeConfig) { c.SessionPeriod = 0 }},
		{"zero call depth", func(c *RuntimeConfig) { c.MaxCallDepth = 0 }},
		{"zero window", func(c *RuntimeConfig) { c.WindowSize = 0 }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultRuntimeConfig()
			tc.modify(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestInstrumentationConfigValidateBasic(t *testing.T) {
	cfg := TestInstrumentationConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.Prometheus = true
	cfg.PrometheusListenAddr = ""
	assert.Error(t, cfg.ValidateBasic())

	cfg = TestInstrumentationConfig()
	cfg.MaxOpenConnections = -1
	assert.Error(t, cfg.ValidateBasic())
}
