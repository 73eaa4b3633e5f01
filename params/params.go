package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	ApiKeyCachePrefix  = "k:"
	RateLimitKeyPrefix = "rl:"

	DefaultApiKeyExpirationDays = 30              // api key lifetime when config omits apiKey.expirationDays
	ApiKeyTokenBytes            = 32              // random bytes per generated api key
	ApiKeyCacheExpiration       = 1 * time.Minute // validated credential cache ttl

	DefaultRateLimitMax    = 60 // requests per credential per window
	DefaultRateLimitWindow = 1 * time.Minute

	DefaultAppName = "Default App 1" // application provisioned at first login

	LoginStateExpiration = 5 * time.Minute // every login state token is valid for 5 minutes

	MaxEventNameLength = 255
	MaxURLLength       = 60000
	MaxDeviceLength    = 255
	MaxIPAddressLength = 40
	MaxMetadataSize    = 60000
	MaxEndUserIDLength = 64

	HealthCheckServerAddr = ":3001" // health check server address

	// MySQLDateTimeLayout is how event timestamps render in API responses,
	// matching the DATETIME column resolution.
	MySQLDateTimeLayout = "2006-01-02 15:04:05"
)
