package config

const (
	defaultDataDir        = "~/.local/share/courier"
	defaultLogDir         = "~/.local/share/courier/logs"
	defaultAPIBind        = "127.0.0.1:7417"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultPollInterval   = 2
	defaultRetryDelay     = 10
	defaultRequestTimeout = 30
	defaultItemListCap    = 100
	defaultNotifyTimeout  = 10
	defaultMaxAttempts    = 6
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Delivery: Delivery{
			PollInterval:   defaultPollInterval,
			RetryDelay:     defaultRetryDelay,
			RequestTimeout: defaultRequestTimeout,
			ItemListCap:    defaultItemListCap,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
