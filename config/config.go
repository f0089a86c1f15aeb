package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// FeeRemainderAuthor assigns the indivisible part of a fee split to the
	// block author.
	FeeRemainderAuthor = "author"
	// FeeRemainderTreasury assigns it to the treasury.
	FeeRemainderTreasury = "treasury"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultExecutiveDir = ".executive"
	defaultConfigDir    = "config"
	defaultDataDir      = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "genesis.json"
	defaultKeyName         = "author_key.json"

	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
	defaultKeyPath         = filepath.Join(defaultConfigDir, defaultKeyName)
)

// Config defines the top level configuration of the executive node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Runtime         *RuntimeConfig         `mapstructure:"runtime"`
	Offchain        *OffchainConfig        `mapstructure:"offchain"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Runtime:         DefaultRuntimeConfig(),
		Offchain:        DefaultOffchainConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Runtime:         TestRuntimeConfig(),
		Offchain:        TestOffchainConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Runtime.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [runtime] section: %w", err)
	}
	if err := cfg.Offchain.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [offchain] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the node.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`

	// Path to the JSON file containing the initial state
	Genesis string `mapstructure:"genesis_file"`

	// Path to the JSON file containing the key used to author blocks and
	// sign offchain submissions
	AuthorKey string `mapstructure:"author_key_file"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Genesis:   defaultGenesisJSONPath,
		AuthorKey: defaultKeyPath,
		Moniker:   defaultMoniker,
		LogLevel:  DefaultLogLevel,
		LogFormat: LogFormatPlain,
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// GenesisFile returns the full path to the genesis.json file
func (cfg BaseConfig) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// AuthorKeyFile returns the full path to the author key file
func (cfg BaseConfig) AuthorKeyFile() string {
	return rootify(cfg.AuthorKey, cfg.RootDir)
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	switch cfg.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db_backend %q", cfg.DBBackend)
	}
	return nil
}

// DefaultLogLevel is the log level used when none is configured.
const DefaultLogLevel = "info"

//-----------------------------------------------------------------------------
// RuntimeConfig

// RuntimeConfig is the constant table of the runtime. It is loaded once at
// startup and passed by pointer to every module; nothing mutates it after
// ValidateBasic succeeds.
type RuntimeConfig struct {
	// Minimum balance an account must keep to exist
	ExistentialDeposit uint64 `mapstructure:"existential_deposit"`
	// Fee charged on every transfer
	TransferFee uint64 `mapstructure:"transfer_fee"`
	// Additional fee charged when a transfer creates the destination account
	CreationFee uint64 `mapstructure:"creation_fee"`

	// Fixed part of every transaction fee
	TransactionBaseFee uint64 `mapstructure:"transaction_base_fee"`
	// Fee per encoded byte of a transaction
	TransactionByteFee uint64 `mapstructure:"transaction_byte_fee"`
	// Multiplier from declared weight to fee
	WeightToFee uint64 `mapstructure:"weight_to_fee"`

	// Block limits
	MaximumBlockWeight uint64 `mapstructure:"maximum_block_weight"`
	MaximumBlockLength uint64 `mapstructure:"maximum_block_length"`
	// Number of recent block hashes kept in state
	BlockHashCount uint64 `mapstructure:"block_hash_count"`

	// Minimum time in milliseconds between two blocks; the slot duration
	// is twice this value
	MinimumPeriod uint64 `mapstructure:"minimum_period"`

	// Staking
	SessionPeriod   uint64 `mapstructure:"session_period"`
	SessionsPerEra  uint64 `mapstructure:"sessions_per_era"`
	BondingDuration uint64 `mapstructure:"bonding_duration"`

	// Maximum nesting of dispatches (sudo inside sudo)
	MaxCallDepth uint64 `mapstructure:"max_call_depth"`
	// Gas limit of a block
	BlockGasLimit uint64 `mapstructure:"block_gas_limit"`

	// Finality tracker
	WindowSize    uint64 `mapstructure:"window_size"`
	ReportLatency uint64 `mapstructure:"report_latency"`

	// Fee split between the treasury and the block author
	TreasuryFeeParts uint64 `mapstructure:"treasury_fee_parts"`
	AuthorFeeParts   uint64 `mapstructure:"author_fee_parts"`
	// Side receiving the indivisible remainder: author | treasury
	FeeRemainderTo string `mapstructure:"fee_remainder_to"`
}

// DefaultRuntimeConfig returns the production constant table.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ExistentialDeposit: 1000,
		TransferFee:        1000000,
		CreationFee:        1000000,
		TransactionBaseFee: 1000000,
		TransactionByteFee: 1000,
		WeightToFee:        1,
		MaximumBlockWeight: 1000000000,
		MaximumBlockLength: 5 * 1024 * 1024,
		BlockHashCount:     250,
		MinimumPeriod:      3000,
		SessionPeriod:      10,
		SessionsPerEra:     5,
		BondingDuration:    4032,
		MaxCallDepth:       1024,
		BlockGasLimit:      10000000,
		WindowSize:         101,
		ReportLatency:      1000,
		TreasuryFeeParts:   4,
		AuthorFeeParts:     1,
		FeeRemainderTo:     FeeRemainderAuthor,
	}
}

// TestRuntimeConfig returns a constant table with small values so tests can
// reach era and finality boundaries quickly.
func TestRuntimeConfig() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.TransferFee = 10
	cfg.CreationFee = 10
	cfg.TransactionBaseFee = 100
	cfg.TransactionByteFee = 1
	cfg.ExistentialDeposit = 10
	cfg.SessionPeriod = 2
	cfg.SessionsPerEra = 2
	cfg.BondingDuration = 2
	cfg.MaxCallDepth = 4
	cfg.WindowSize = 5
	cfg.ReportLatency = 10
	return cfg
}

// SlotDuration is the aura slot duration in milliseconds.
func (cfg *RuntimeConfig) SlotDuration() uint64 {
	return 2 * cfg.MinimumPeriod
}

// BondingBlocks is the number of blocks unbonded funds stay locked.
func (cfg *RuntimeConfig) BondingBlocks() uint64 {
	return cfg.BondingDuration * cfg.SessionsPerEra * cfg.SessionPeriod
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *RuntimeConfig) ValidateBasic() error {
	if cfg.TreasuryFeeParts+cfg.AuthorFeeParts == 0 {
		return errors.New("treasury_fee_parts and author_fee_parts can't both be zero")
	}
	switch cfg.FeeRemainderTo {
	case FeeRemainderAuthor, FeeRemainderTreasury:
	default:
		return fmt.Errorf("fee_remainder_to must be %q or %q", FeeRemainderAuthor, FeeRemainderTreasury)
	}
	if cfg.MinimumPeriod == 0 {
		return errors.New("minimum_period can't be zero")
	}
	if cfg.MaximumBlockWeight == 0 {
		return errors.New("maximum_block_weight can't be zero")
	}
	if cfg.MaximumBlockLength == 0 {
		return errors.New("maximum_block_length can't be zero")
	}
	if cfg.BlockHashCount == 0 {
		return errors.New("block_hash_count can't be zero")
	}
	if cfg.SessionPeriod == 0 || cfg.SessionsPerEra == 0 {
		return errors.New("session_period and sessions_per_era can't be zero")
	}
	if cfg.MaxCallDepth == 0 {
		return errors.New("max_call_depth can't be zero")
	}
	if cfg.WindowSize == 0 {
		return errors.New("window_size can't be zero")
	}
	return nil
}

//-----------------------------------------------------------------------------
// OffchainConfig

// OffchainConfig configures the offchain worker runner.
type OffchainConfig struct {
	// Run offchain workers after each imported block
	Enabled bool `mapstructure:"enabled"`
	// Number of workers that may run concurrently
	Workers int `mapstructure:"workers"`
	// Capacity of the submission queue
	QueueSize int `mapstructure:"queue_size"`
	// Maximum time a single worker invocation may take
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultOffchainConfig returns a default offchain configuration.
func DefaultOffchainConfig() *OffchainConfig {
	return &OffchainConfig{
		Enabled:   true,
		Workers:   4,
		QueueSize: 1024,
		Timeout:   10 * time.Second,
	}
}

// TestOffchainConfig returns an offchain configuration for testing.
func TestOffchainConfig() *OffchainConfig {
	cfg := DefaultOffchainConfig()
	cfg.Workers = 2
	cfg.QueueSize = 16
	cfg.Timeout = time.Second
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *OffchainConfig) ValidateBasic() error {
	if cfg.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if cfg.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections to the metrics endpoint.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		MaxOpenConnections:   3,
		Namespace:            "executive",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus_listen_addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

//-----------------------------------------------------------------------------
// Moniker

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If runtime
// fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
