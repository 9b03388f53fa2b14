package config

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/setavenger/utxo-dump/internal/logging"
)

var ErrInvalidConfig = errors.New("invalid config")

func LoadConfigs(pathToConfig string) error {
	// Set the file name of the configurations file
	viper.SetConfigFile(pathToConfig)

	// Handle errors reading the config file
	if err := viper.ReadInConfig(); err != nil {
		logging.L.Warn().Err(err).Msg("No config file detected")
	}

	/* set defaults */
	viper.SetDefault("backend", Backend)
	viper.SetDefault("redis_url", RedisURL)
	viper.SetDefault("redis_hash", RedisHash)
	viper.SetDefault("postgres_user", PostgresUser)
	viper.SetDefault("postgres_host", PostgresHost)
	viper.SetDefault("postgres_db", PostgresDB)
	viper.SetDefault("sql_table", SQLTable)
	viper.SetDefault("sqlite_path", SQLitePath)
	viper.SetDefault("kv_path", KVPath)
	viper.SetDefault("dump_folder", DumpFolder)
	viper.SetDefault("dump_name", DumpName)
	viper.SetDefault("chain", "main")
	viper.SetDefault("rest_endpoint", RestEndpoint)
	viper.SetDefault("start_height", StartHeight)
	viper.SetDefault("end_height", EndHeight)
	viper.SetDefault("http_host", HTTPHost)
	viper.SetDefault("log_level", LogLevel)
	viper.SetDefault("log_path", LogsPath)
	viper.SetDefault("commit_errors_fatal", CommitErrorsFatal)

	// Bind viper keys to environment variables
	viper.AutomaticEnv()
	_ = viper.BindEnv("backend", "BACKEND")
	_ = viper.BindEnv("redis_url", "REDIS_URL")
	_ = viper.BindEnv("redis_hash", "REDIS_HASH")
	_ = viper.BindEnv("postgres_user", "POSTGRES_USER")
	_ = viper.BindEnv("postgres_host", "POSTGRES_HOST")
	_ = viper.BindEnv("postgres_db", "POSTGRES_DB")
	_ = viper.BindEnv("chain", "CHAIN")
	_ = viper.BindEnv("rest_endpoint", "REST_ENDPOINT")
	_ = viper.BindEnv("start_height", "START_HEIGHT")
	_ = viper.BindEnv("end_height", "END_HEIGHT")
	_ = viper.BindEnv("http_host", "HTTP_HOST")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("commit_errors_fatal", "COMMIT_ERRORS_FATAL")

	/* read and set config variables */
	// Store
	Backend = viper.GetString("backend")
	RedisURL = viper.GetString("redis_url")
	RedisHash = viper.GetString("redis_hash")
	PostgresUser = viper.GetString("postgres_user")
	PostgresHost = viper.GetString("postgres_host")
	PostgresDB = viper.GetString("postgres_db")
	SQLTable = viper.GetString("sql_table")
	SQLitePath = viper.GetString("sqlite_path")
	KVPath = viper.GetString("kv_path")

	// Run
	DumpFolder = viper.GetString("dump_folder")
	DumpName = viper.GetString("dump_name")
	RestEndpoint = viper.GetString("rest_endpoint")
	StartHeight = viper.GetUint64("start_height")
	EndHeight = viper.GetUint64("end_height")
	HTTPHost = viper.GetString("http_host")
	CommitErrorsFatal = viper.GetBool("commit_errors_fatal")

	// Logging
	LogLevel = viper.GetString("log_level")
	LogsPath = viper.GetString("log_path")

	Chain = ParseChain(viper.GetString("chain"))
	if Chain == Unknown {
		return errors.Mark(errors.Newf("chain %q undefined", viper.GetString("chain")), ErrInvalidConfig)
	}

	switch Backend {
	case BackendRedis, BackendPostgres, BackendSQLite, BackendPebble, BackendLevelDB, BackendMemory:
	default:
		return errors.Mark(errors.Newf("backend %q unknown", Backend), ErrInvalidConfig)
	}

	if EndHeight != 0 && EndHeight < StartHeight {
		return errors.Mark(
			errors.Newf("end_height %d below start_height %d", EndHeight, StartHeight),
			ErrInvalidConfig,
		)
	}

	switch LogLevel {
	case "trace":
		logging.SetLogLevel(zerolog.TraceLevel)
	case "info":
		logging.SetLogLevel(zerolog.InfoLevel)
	case "debug":
		logging.SetLogLevel(zerolog.DebugLevel)
	case "warn":
		logging.SetLogLevel(zerolog.WarnLevel)
	case "error":
		logging.SetLogLevel(zerolog.ErrorLevel)
	}

	logging.L.Info().
		Str("backend", Backend).
		Str("chain", ChainToString(Chain)).
		Uint64("start_height", StartHeight).
		Uint64("end_height", EndHeight).
		Bool("commit_errors_fatal", CommitErrorsFatal).
		Msg("config loaded")

	return nil
}
