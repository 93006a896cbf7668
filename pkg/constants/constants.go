// Package constants provides shared constants for the deal-calculator application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// WeeksPerYear is the number of rent weeks in a year
	WeeksPerYear = 52

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// ProjectionYears is the horizon of the capital gain and lifetime return figures
	ProjectionYears = 10

	// AnnualGrowthRate is the fixed capital growth rate applied every year
	AnnualGrowthRate = 0.035

	// FirstChargeLTV is the loan-to-value ratio used for refinance lending and lending fees
	FirstChargeLTV = 0.75

	// FirstChargeLTVPercent is FirstChargeLTV expressed as a percentage
	FirstChargeLTVPercent = 75
)

// Variant specific constants
const (
	// DomesticMortgageRate is the annual interest-only mortgage rate for domestic investors
	DomesticMortgageRate = 0.06

	// InternationalMortgageRate is the annual interest-only mortgage rate for international investors
	InternationalMortgageRate = 0.075

	// InternationalMonthlyRent is the fixed monthly rent basis for international investors
	InternationalMonthlyRent = 870.0

	// ProjectManagementRate is the share of renovation cost charged for project management
	ProjectManagementRate = 0.10
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys
	EnvPrefix = "DEAL"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimitPerSecond is the default sustained request rate of the API
	DefaultRateLimitPerSecond = 10.0

	// DefaultRateLimitBurst is the default request burst of the API
	DefaultRateLimitBurst = 30
)

// Storage drivers
const (
	// StorageDriverMemory keeps deals in process memory
	StorageDriverMemory = "memory"

	// StorageDriverSQLite stores deals in a SQLite database file
	StorageDriverSQLite = "sqlite"

	// StorageDriverPostgres stores deals in PostgreSQL
	StorageDriverPostgres = "postgres"
)

// Cache backends
const (
	// CacheBackendNone disables result caching
	CacheBackendNone = "none"

	// CacheBackendMemory caches results in process memory
	CacheBackendMemory = "memory"

	// CacheBackendRedis caches results in Redis
	CacheBackendRedis = "redis"
)

// Cache defaults
const (
	// DefaultCacheTTLSeconds is how long a computed result stays cached
	DefaultCacheTTLSeconds = 600

	// DefaultCacheCleanupSeconds is how often expired in-memory entries are purged
	DefaultCacheCleanupSeconds = 1200
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
