package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ccoveille/go-safecast"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	sqliteDb   = "sqlite"
	badgerDb   = "badger"
	postgresDb = "postgres"

	envPrefix = "ESCROWD"

	custodyDir = "custody"
)

type Config struct {
	Datadir     string `mapstructure:"DATADIR" envDefault:"escrowd" envInfo:"Data directory for the ledger state"`
	DbType      string `mapstructure:"DB_TYPE" envDefault:"sqlite" envInfo:"Database backend: sqlite | badger | postgres"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN" envDefault:"" envInfo:"Postgres connection string (DB_TYPE=postgres)"`
	GRPCPort    uint32 `mapstructure:"GRPC_PORT" envDefault:"7070" envInfo:"gRPC server port"`
	HTTPPort    uint32 `mapstructure:"HTTP_PORT" envDefault:"7071" envInfo:"HTTP server port"`
	LogLevel    uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`

	OwnerAddress    string `mapstructure:"OWNER_ADDRESS" envDefault:"" envInfo:"Genesis owner address"`
	VaultAddress    string `mapstructure:"VAULT_ADDRESS" envDefault:"" envInfo:"Genesis vault address"`
	InitialTakeRate int64  `mapstructure:"INITIAL_TAKE_RATE" envDefault:"25" envInfo:"Genesis take rate in parts per 1000"`
	UnlockPeriod    int64  `mapstructure:"UNLOCK_PERIOD" envDefault:"259200" envInfo:"Genesis unlock period in seconds"`
	SweepInterval   int64  `mapstructure:"SWEEP_INTERVAL" envDefault:"0" envInfo:"Stale task sweep interval in seconds, 0 disables it"`

	CustodyFaucet bool `mapstructure:"CUSTODY_FAUCET" envDefault:"false" envInfo:"Mint a pull's shortfall into the payer's custody account (development only)"`

	DisableTelemetry   bool   `mapstructure:"DISABLE_TELEMETRY" envDefault:"false" envInfo:"Disable telemetry"`
	OtelEnabled        bool   `mapstructure:"OTEL_ENABLED" envDefault:"false" envInfo:"Export metrics and logs with OpenTelemetry"`
	OtelPushInterval   int64  `mapstructure:"OTEL_PUSH_INTERVAL" envDefault:"10" envInfo:"OpenTelemetry push interval in seconds"`
	PyroscopeServerURL string `mapstructure:"PYROSCOPE_SERVER_URL" envDefault:"" envInfo:"Pyroscope server URL, empty disables profiling"`

	EnvFile string `mapstructure:"ENV_FILE" envDefault:"" envInfo:"Optional .env file loaded before reading the environment"`

	genesisTakeRate     uint32
	genesisUnlockPeriod time.Duration
	sweepInterval       time.Duration
}

func LoadConfig() (*Config, error) {
	// the env file must be loaded before viper reads the environment
	if err := loadEnvFile(os.Getenv(envPrefix + "_" + EnvFile)); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	if err := config.deriveGenesis(); err != nil {
		return nil, fmt.Errorf("error deriving genesis config: %w", err)
	}

	return &config, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	// variables already set in the environment win over the file
	if err := godotenv.Load(cleanAndExpandPath(path)); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) deriveGenesis() error {
	owner := domain.NewAddress(c.OwnerAddress)
	if owner.IsNull() {
		return fmt.Errorf("missing owner address")
	}
	vault := domain.NewAddress(c.VaultAddress)
	if vault.IsNull() {
		return fmt.Errorf("missing vault address")
	}

	takeRate, err := safecast.ToUint32(c.InitialTakeRate)
	if err != nil {
		return fmt.Errorf("invalid initial take rate: %w", err)
	}
	if takeRate > domain.GenesisMaxTakeRate {
		return fmt.Errorf(
			"initial take rate %d exceeds max %d", takeRate, domain.GenesisMaxTakeRate,
		)
	}
	c.genesisTakeRate = takeRate

	if c.UnlockPeriod < 0 {
		return fmt.Errorf("unlock period must not be negative")
	}
	c.genesisUnlockPeriod = time.Duration(c.UnlockPeriod) * time.Second

	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval must not be negative")
	}
	c.sweepInterval = time.Duration(c.SweepInterval) * time.Second

	if c.OtelEnabled && c.OtelPushInterval <= 0 {
		return fmt.Errorf("otel push interval must be positive")
	}
	return nil
}

func (c *Config) Owner() domain.Address {
	return domain.NewAddress(c.OwnerAddress)
}

func (c *Config) Vault() domain.Address {
	return domain.NewAddress(c.VaultAddress)
}

func (c *Config) GenesisTakeRate() uint32 {
	return c.genesisTakeRate
}

func (c *Config) GenesisUnlockPeriod() time.Duration {
	return c.genesisUnlockPeriod
}

func (c *Config) StaleTaskSweepInterval() time.Duration {
	return c.sweepInterval
}

// CustodyDir is where the custody store keeps external and custodied
// balances.
func (c *Config) CustodyDir() string {
	return filepath.Join(c.Datadir, custodyDir)
}

// DbConfig returns the arguments expected by db.NewService for the
// configured backend.
func (c *Config) DbConfig() []any {
	switch c.DbType {
	case badgerDb:
		return []any{filepath.Join(c.Datadir, "db"), nil}
	case postgresDb:
		return []any{c.PostgresDSN}
	default:
		return []any{c.Datadir}
	}
}

func (c *Config) initDb() error {
	supportedDbType := map[string]struct{}{
		sqliteDb:   {},
		badgerDb:   {},
		postgresDb: {},
	}

	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	if c.DbType == postgresDb && c.PostgresDSN == "" {
		return fmt.Errorf("missing postgres dsn")
	}

	if c.Datadir == DefaultDatadir {
		c.Datadir = appDatadir(DefaultDatadir, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.Datadir)
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDatadir returns an operating system specific directory to be used for
// storing application data.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows XP and before didn't have a LOCALAPPDATA.
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "."
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
