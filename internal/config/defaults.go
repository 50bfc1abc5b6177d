package config

const (
	defaultResourceDir    = "./resource"
	defaultSaveDir        = "./saves"
	defaultLogDir         = "~/.local/share/spinefetch/logs"
	defaultLedgerFile     = "ledger.db"
	defaultWorkers        = 32
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	defaultRequestTimeout = 15
	defaultRetryDelay     = 3
	defaultRetryMaxDelay  = 60
	defaultMaxAttempts    = 8
	defaultPriority       = "vendor"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResourceDir: defaultResourceDir,
			SaveDir:     defaultSaveDir,
			LogDir:      defaultLogDir,
		},
		Download: Download{
			Workers:        defaultWorkers,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
			RetryDelay:     defaultRetryDelay,
			RetryMaxDelay:  defaultRetryMaxDelay,
			MaxAttempts:    defaultMaxAttempts,
		},
		Manifest: Manifest{
			Priority: defaultPriority,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
