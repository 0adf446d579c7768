package constants

import "time"

const (
	AppName            = "daylog"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/daylog/daylog.db"
	Version            = "v0.1.0"

	// EnvConfig overrides the --config flag
	EnvConfig = "DAYLOG_CONFIG"
	// EnvDBConnection holds a PostgreSQL connection string
	EnvDBConnection = "DAYLOG_DB_CONNECTION"
	// EnvDebug enables debug logging
	EnvDebug = "DAYLOG_DEBUG"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "daylog-"
	BackupFileSuffix = ".db"

	// Log constants
	LogDirName     = "logs"
	LogFileName    = "daylog.log"
	LogMaxSizeMB   = 10
	LogMaxBackups  = 3
	LogMaxAgeDays  = 28
	DefaultAPIAddr = "127.0.0.1:7878"

	// SmokeDate is used by the doctor write/read check and is unlikely to collide with real data
	SmokeDate = "2099-01-01"

	// SQLite connection pragmas
	SQLiteBusyTimeoutMs = 5000

	// APIShutdownTimeout bounds graceful shutdown of the HTTP server
	APIShutdownTimeout = 5 * time.Second
)
