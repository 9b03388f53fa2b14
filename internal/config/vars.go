package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

const (
	ConfigFileName       string = "utxodump.toml"
	DefaultBaseDirectory string = "~/.utxo-dump"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendPebble   = "pebble"
	BackendLevelDB  = "leveldb"
	BackendMemory   = "memory"
)

var (
	LogLevel = "info"
	LogsPath = ""

	BaseDirectory = ""
	DBPath        = ""
)

// store selection
var (
	Backend = BackendRedis

	RedisURL  = "redis://127.0.0.1:6379/0"
	RedisHash = "bitcoin_unspent"

	PostgresUser = "postgres"
	PostgresHost = "localhost"
	PostgresDB   = "rusty_blockchain"
	SQLTable     = "results"

	// SQLitePath defaults into DBPath, see SetDirectories.
	SQLitePath = ""
	// KVPath left empty gives every embedded engine its own directory, see KVPathFor
	KVPath = ""
)

// run control
var (
	DumpFolder = "."
	DumpName   = "unspent"

	RestEndpoint = "http://127.0.0.1:8332" // default local node

	StartHeight uint64 = 0
	// EndHeight 0 runs up to the node's tip
	EndHeight uint64 = 0

	HTTPHost = "" // default value is empty (deactivated)

	// CommitErrorsFatal aborts on a failed block commit instead of logging it
	CommitErrorsFatal = true
)

type chain int

const (
	Unknown chain = iota
	Mainnet
	Signet
	Regtest
	Testnet3
)

var Chain = Mainnet

// one has to call SetDirectories otherwise the store paths will be empty
func SetDirectories() {
	BaseDirectory = ResolvePath(BaseDirectory)

	DBPath = filepath.Join(BaseDirectory, "data")
	if LogsPath == "" {
		LogsPath = filepath.Join(BaseDirectory, "logs")
	}

	if SQLitePath == "" {
		SQLitePath = filepath.Join(DBPath, "utxo.sqlite")
	}
}

// KVPathFor returns the directory the embedded engine backend keeps its data in.
// Resolved when the store is opened so the engine chosen on the command line counts.
func KVPathFor(backend string) string {
	if KVPath != "" {
		return KVPath
	}
	return filepath.Join(DBPath, backend)
}

// ResolvePath expands a leading ~ to the user's home directory.
func ResolvePath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func ParseChain(s string) chain {
	switch s {
	case "main":
		return Mainnet
	case "signet":
		return Signet
	case "regtest":
		return Regtest
	case "testnet":
		return Testnet3
	default:
		return Unknown
	}
}

func ChainToString(c chain) string {
	switch c {
	case Mainnet:
		return "main"
	case Signet:
		return "signet"
	case Regtest:
		return "regtest"
	case Testnet3:
		return "testnet"
	default:
		return "unknown"
	}
}

// ChainParams are used to render output scripts as addresses.
func ChainParams() *chaincfg.Params {
	switch Chain {
	case Signet:
		return &chaincfg.SigNetParams
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Testnet3:
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.MainNetParams
	}
}
