//go:generate go run ../../tools/gen-env-doc/main.go
package config

import "fmt"

const (
	Datadir            = "DATADIR"
	DbType             = "DB_TYPE"
	PostgresDSN        = "POSTGRES_DSN"
	GRPCPort           = "GRPC_PORT"
	HTTPPort           = "HTTP_PORT"
	LogLevel           = "LOG_LEVEL"
	OwnerAddress       = "OWNER_ADDRESS"
	VaultAddress       = "VAULT_ADDRESS"
	InitialTakeRate    = "INITIAL_TAKE_RATE"
	UnlockPeriod       = "UNLOCK_PERIOD"
	SweepInterval      = "SWEEP_INTERVAL"
	CustodyFaucet      = "CUSTODY_FAUCET"
	DisableTelemetry   = "DISABLE_TELEMETRY"
	OtelEnabled        = "OTEL_ENABLED"
	OtelPushInterval   = "OTEL_PUSH_INTERVAL"
	PyroscopeServerURL = "PYROSCOPE_SERVER_URL"
	EnvFile            = "ENV_FILE"
)

const (
	DefaultDatadir                 = "escrowd"
	DefaultDbType                  = sqliteDb
	DefaultGRPCPort         uint32 = 7070
	DefaultHTTPPort         uint32 = 7071
	DefaultLogLevel         uint32 = 4
	DefaultInitialTakeRate  int64  = 25
	DefaultUnlockPeriod     int64  = 259200
	DefaultSweepInterval    int64  = 0
	DefaultCustodyFaucet           = false
	DefaultDisableTelemetry        = false
	DefaultOtelEnabled             = false
	DefaultOtelPushInterval int64  = 10
)

type EnvVar struct {
	Name        string // short name under the ESCROWD_ prefix (e.g., "DATADIR")
	FullName    string // e.g., "ESCROWD_DATADIR"
	Type        string // human-readable type
	Default     string // default value as a string ("" if none)
	Description string // one-liner for docs
	Notes       string // optional: constraints, examples, etc.
}

func EnvSpecs() []EnvVar {
	const P = envPrefix + "_"

	return []EnvVar{
		{
			Name:        Datadir,
			FullName:    P + Datadir,
			Type:        "string (path)",
			Default:     DefaultDatadir,
			Description: "Data directory for the ledger state",
			Notes:       "The default resolves to the OS application data dir (e.g. ~/.escrowd).",
		},
		{
			Name:        DbType,
			FullName:    P + DbType,
			Type:        "string",
			Default:     DefaultDbType,
			Description: "Database backend: sqlite | badger | postgres",
		},
		{
			Name:        PostgresDSN,
			FullName:    P + PostgresDSN,
			Type:        "string (DSN)",
			Default:     "",
			Description: "Postgres connection string",
			Notes:       "Required when DB_TYPE=postgres.",
		},
		{
			Name:        GRPCPort,
			FullName:    P + GRPCPort,
			Type:        "uint32 (port)",
			Default:     fmt.Sprintf("%d", DefaultGRPCPort),
			Description: "gRPC server port",
		},
		{
			Name:        HTTPPort,
			FullName:    P + HTTPPort,
			Type:        "uint32 (port)",
			Default:     fmt.Sprintf("%d", DefaultHTTPPort),
			Description: "HTTP server port",
		},
		{
			Name:        LogLevel,
			FullName:    P + LogLevel,
			Type:        "uint32 (0-6)",
			Default:     fmt.Sprintf("%d", DefaultLogLevel),
			Description: "Log verbosity (higher = more verbose)",
		},
		// --- Genesis governance, only applied on an empty store ---
		{
			Name:        OwnerAddress,
			FullName:    P + OwnerAddress,
			Type:        "string (address)",
			Default:     "",
			Description: "Owner allowed to change governance parameters",
			Notes:       "Required, must not be the null address.",
		},
		{
			Name:        VaultAddress,
			FullName:    P + VaultAddress,
			Type:        "string (address)",
			Default:     "",
			Description: "Protocol vault credited with the take",
			Notes:       "Required, must not be the null address.",
		},
		{
			Name:        InitialTakeRate,
			FullName:    P + InitialTakeRate,
			Type:        "int64 (0-50)",
			Default:     fmt.Sprintf("%d", DefaultInitialTakeRate),
			Description: "Protocol take rate in parts per 1000",
		},
		{
			Name:        UnlockPeriod,
			FullName:    P + UnlockPeriod,
			Type:        "int64 (seconds)",
			Default:     fmt.Sprintf("%d", DefaultUnlockPeriod),
			Description: "Time after creation when anyone may cancel an open task",
		},
		{
			Name:        SweepInterval,
			FullName:    P + SweepInterval,
			Type:        "int64 (seconds)",
			Default:     fmt.Sprintf("%d", DefaultSweepInterval),
			Description: "Interval of the stale task sweeper",
			Notes:       "0 disables the sweeper.",
		},
		{
			Name:        CustodyFaucet,
			FullName:    P + CustodyFaucet,
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultCustodyFaucet),
			Description: "Mint a pull's shortfall into the payer's custody account",
			Notes:       "Development only, custody state lives under DATADIR/custody.",
		},
		// --- Telemetry ---
		{
			Name:        DisableTelemetry,
			FullName:    P + DisableTelemetry,
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultDisableTelemetry),
			Description: "Disable error reporting to sentry",
		},
		{
			Name:        OtelEnabled,
			FullName:    P + OtelEnabled,
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultOtelEnabled),
			Description: "Export metrics and logs with OpenTelemetry",
		},
		{
			Name:        OtelPushInterval,
			FullName:    P + OtelPushInterval,
			Type:        "int64 (seconds)",
			Default:     fmt.Sprintf("%d", DefaultOtelPushInterval),
			Description: "OpenTelemetry metrics push interval",
		},
		{
			Name:        PyroscopeServerURL,
			FullName:    P + PyroscopeServerURL,
			Type:        "string (URL)",
			Default:     "",
			Description: "Pyroscope server URL for continuous profiling",
			Notes:       "Empty disables profiling.",
		},
		{
			Name:        EnvFile,
			FullName:    P + EnvFile,
			Type:        "string (path)",
			Default:     "",
			Description: "Optional .env file loaded before reading the environment",
			Notes:       "Variables already set in the environment take precedence.",
		},
	}
}
