// Package config holds viper keys, defaults and a typed snapshot of the
// bookscout configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Environment variables are bound in BindEnv.
const (
	KeyLibraryAPIKey        = "library.apikey"
	KeyLibraryBaseURL       = "library.baseurl"
	KeyLibraryRelayURL      = "library.relayurl"
	KeyLibraryTimeout       = "library.timeout"
	KeyLibraryRatePerSecond = "library.ratepersecond"
	KeyKeywordTokens        = "library.keywordtokens"

	KeyOCRBaseURL       = "ocr.baseurl"
	KeyOCRUploadTimeout = "ocr.uploadtimeout"
	KeyOCRHealthTimeout = "ocr.healthtimeout"

	KeyCacheDBFile       = "cache.dbfile"
	KeyCacheTTL          = "cache.ttl"
	KeyCacheSweepEnabled = "cache.sweep"

	KeyHistoryEnabled = "history.enabled"
	KeyHistoryDBFile  = "history.dbfile"

	KeyPageConcurrency   = "parallel.pageconcurrency"
	KeyRegionConcurrency = "parallel.regionconcurrency"
	KeyPerRegionLimit    = "parallel.perregionlimit"
	KeyMaxRetries        = "parallel.maxretries"
	KeyRetryDelay        = "parallel.retrydelay"
)

// Config is a typed snapshot of the viper state.
type Config struct {
	Library  LibraryConfig
	OCR      OCRConfig
	Cache    CacheConfig
	History  HistoryConfig
	Parallel ParallelConfig
}

// LibraryConfig configures the data4library client.
type LibraryConfig struct {
	APIKey        string
	BaseURL       string
	RelayURL      string
	Timeout       time.Duration
	RatePerSecond int
	KeywordTokens int
}

// OCRConfig configures the OCR backend client.
type OCRConfig struct {
	BaseURL       string
	UploadTimeout time.Duration
	HealthTimeout time.Duration
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	DBFile string
	TTL    time.Duration
	Sweep  bool
}

// HistoryConfig configures the search history store.
type HistoryConfig struct {
	Enabled bool
	DBFile  string
}

// ParallelConfig holds fan-out defaults.
type ParallelConfig struct {
	PageConcurrency   int
	RegionConcurrency int
	PerRegionLimit    int
	MaxRetries        int
	RetryDelay        time.Duration
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault(KeyLibraryAPIKey, "")
	viper.SetDefault(KeyLibraryBaseURL, "http://data4library.kr")
	viper.SetDefault(KeyLibraryRelayURL, "https://cors-anywhere.herokuapp.com/")
	viper.SetDefault(KeyLibraryTimeout, "15s")
	viper.SetDefault(KeyLibraryRatePerSecond, 5)
	viper.SetDefault(KeyKeywordTokens, 2)

	viper.SetDefault(KeyOCRBaseURL, "http://localhost:8000")
	viper.SetDefault(KeyOCRUploadTimeout, "60s")
	viper.SetDefault(KeyOCRHealthTimeout, "5s")

	viper.SetDefault(KeyCacheDBFile, "./cache.db")
	viper.SetDefault(KeyCacheTTL, "1h")
	viper.SetDefault(KeyCacheSweepEnabled, true)

	viper.SetDefault(KeyHistoryEnabled, true)
	viper.SetDefault(KeyHistoryDBFile, "./history.db")

	viper.SetDefault(KeyPageConcurrency, 5)
	viper.SetDefault(KeyRegionConcurrency, 8)
	viper.SetDefault(KeyPerRegionLimit, 3)
	viper.SetDefault(KeyMaxRetries, 2)
	viper.SetDefault(KeyRetryDelay, "1s")
}

// BindEnv binds the documented environment variables to their keys.
func BindEnv() error {
	bindings := map[string]string{
		KeyLibraryAPIKey:   "LIBRARY_API_KEY",
		KeyLibraryBaseURL:  "LIBRARY_API_BASE_URL",
		KeyLibraryRelayURL: "LIBRARY_RELAY_URL",
		KeyOCRBaseURL:      "OCR_BASE_URL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Load reads the current viper state into a Config.
func Load() Config {
	return Config{
		Library: LibraryConfig{
			APIKey:        viper.GetString(KeyLibraryAPIKey),
			BaseURL:       viper.GetString(KeyLibraryBaseURL),
			RelayURL:      viper.GetString(KeyLibraryRelayURL),
			Timeout:       viper.GetDuration(KeyLibraryTimeout),
			RatePerSecond: viper.GetInt(KeyLibraryRatePerSecond),
			KeywordTokens: viper.GetInt(KeyKeywordTokens),
		},
		OCR: OCRConfig{
			BaseURL:       viper.GetString(KeyOCRBaseURL),
			UploadTimeout: viper.GetDuration(KeyOCRUploadTimeout),
			HealthTimeout: viper.GetDuration(KeyOCRHealthTimeout),
		},
		Cache: CacheConfig{
			DBFile: viper.GetString(KeyCacheDBFile),
			TTL:    viper.GetDuration(KeyCacheTTL),
			Sweep:  viper.GetBool(KeyCacheSweepEnabled),
		},
		History: HistoryConfig{
			Enabled: viper.GetBool(KeyHistoryEnabled),
			DBFile:  viper.GetString(KeyHistoryDBFile),
		},
		Parallel: ParallelConfig{
			PageConcurrency:   viper.GetInt(KeyPageConcurrency),
			RegionConcurrency: viper.GetInt(KeyRegionConcurrency),
			PerRegionLimit:    viper.GetInt(KeyPerRegionLimit),
			MaxRetries:        viper.GetInt(KeyMaxRetries),
			RetryDelay:        viper.GetDuration(KeyRetryDelay),
		},
	}
}
