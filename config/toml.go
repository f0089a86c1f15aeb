package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/creachadair/atomicfile"

	tmos "github.com/tendermint/executive/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist,
// and panics if it fails.
func EnsureRoot(rootDir string) {
	if err := tmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
}

// WriteConfigFile renders config using the template and writes it to configFilePath.
// This function is called by cmd/executive/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	if err := atomicfile.WriteData(path, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !tmos.FileExists(configFilePath) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/myawesomeapp/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.executive" by default, but could be changed via $EXHOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Database backend: goleveldb | memdb
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ .BaseConfig.DBPath }}"

# Output level for logging: debug | info | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

# Path to the JSON file containing the initial state
genesis_file = "{{ js .BaseConfig.Genesis }}"

# Path to the JSON file containing the key used to author blocks and sign
# offchain submissions
author_key_file = "{{ js .BaseConfig.AuthorKey }}"

#######################################################################
###                 Runtime Configuration Options                   ###
#######################################################################
[runtime]

# Minimum balance an account must keep to exist
existential_deposit = {{ .Runtime.ExistentialDeposit }}

# Fee charged on every transfer
transfer_fee = {{ .Runtime.TransferFee }}

# Additional fee charged when a transfer creates the destination account
creation_fee = {{ .Runtime.CreationFee }}

# Transaction fee = base + byte fee * length + weight * weight_to_fee
transaction_base_fee = {{ .Runtime.TransactionBaseFee }}
transaction_byte_fee = {{ .Runtime.TransactionByteFee }}
weight_to_fee = {{ .Runtime.WeightToFee }}

# Block limits
maximum_block_weight = {{ .Runtime.MaximumBlockWeight }}
maximum_block_length = {{ .Runtime.MaximumBlockLength }}

# Number of recent block hashes kept in state
block_hash_count = {{ .Runtime.BlockHashCount }}

# Minimum time in milliseconds between two blocks
minimum_period = {{ .Runtime.MinimumPeriod }}

# Staking
session_period = {{ .Runtime.SessionPeriod }}
sessions_per_era = {{ .Runtime.SessionsPerEra }}
bonding_duration = {{ .Runtime.BondingDuration }}

# Maximum nesting of dispatches
max_call_depth = {{ .Runtime.MaxCallDepth }}

# Gas limit of a block
block_gas_limit = {{ .Runtime.BlockGasLimit }}

# Finality tracker
window_size = {{ .Runtime.WindowSize }}
report_latency = {{ .Runtime.ReportLatency }}

# Fee split between the treasury and the block author
treasury_fee_parts = {{ .Runtime.TreasuryFeeParts }}
author_fee_parts = {{ .Runtime.AuthorFeeParts }}

# Side receiving the indivisible remainder of a fee split: author | treasury
fee_remainder_to = "{{ .Runtime.FeeRemainderTo }}"

#######################################################################
###                 Offchain Configuration Options                  ###
#######################################################################
[offchain]

# Run offchain workers after each imported block
enabled = {{ .Offchain.Enabled }}

# Number of workers that may run concurrently
workers = {{ .Offchain.Workers }}

# Capacity of the submission queue
queue_size = {{ .Offchain.QueueSize }}

# Maximum time a single worker invocation may take
timeout = "{{ .Offchain.Timeout }}"

#######################################################################
###       Instrumentation Configuration Options                     ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
# Check out the documentation for the list of available metrics.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Maximum number of simultaneous connections.
# 0 - unlimited.
max_open_connections = {{ .Instrumentation.MaxOpenConnections }}

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

/****** these are for test settings ***********/

// ResetTestRoot creates a fresh home directory with a default config file
// and a test genesis.
func ResetTestRoot(dir, testName string) (*Config, error) {
	// create a unique, concurrency-safe test directory under os.TempDir()
	rootDir, err := os.MkdirTemp(dir, fmt.Sprintf("%s_", testName))
	if err != nil {
		return nil, err
	}
	// ensure config and data subdirs are created
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		return nil, err
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		return nil, err
	}

	// Write default config file if missing.
	if err := writeDefaultConfigFileIfNone(rootDir); err != nil {
		return nil, err
	}

	genesisFilePath := filepath.Join(rootDir, defaultGenesisJSONPath)
	if !tmos.FileExists(genesisFilePath) {
		if err := atomicfile.WriteData(genesisFilePath, []byte(testGenesis), 0644); err != nil {
			return nil, err
		}
	}

	return TestConfig().SetRoot(rootDir), nil
}

const testGenesis = `{
  "genesis_time": "2019-08-01T00:00:00Z",
  "chain_id": "executive_test",
  "accounts": [
    {
      "account": "0x0101010101010101010101010101010101010101010101010101010101010101",
      "balance": "1000000000000000"
    }
  ],
  "aura_authorities": [
    "0x0202020202020202020202020202020202020202020202020202020202020202"
  ],
  "grandpa_authorities": [
    {
      "id": "0x0202020202020202020202020202020202020202020202020202020202020202",
      "weight": "1"
    }
  ],
  "sudo_key": "0x0101010101010101010101010101010101010101010101010101010101010101"
}`
