package config

const (
	defaultDataDir           = "~/.local/share/linguaflow"
	defaultLogDir            = "~/.local/share/linguaflow/logs"
	defaultAPIBind           = "127.0.0.1:8911"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultQueuePollInterval = 2
	defaultWorkerCount       = 2
	defaultHeartbeatTimeout  = 120
	defaultMaxRetries        = 3
	defaultProviderTimeout   = 30
	defaultNotifyTimeout     = 10
	defaultWebhookTimeout    = 10
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultGeminiModel       = "gemini-2.0-flash"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			WorkerCount:       defaultWorkerCount,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
			MaxRetries:        defaultMaxRetries,
		},
		Providers: Providers{
			TimeoutSeconds: defaultProviderTimeout,
			OpenAI: Provider{
				Model: defaultOpenAIModel,
			},
			Gemini: Provider{
				Model: defaultGeminiModel,
			},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Review:         true,
			Queue:          true,
			Errors:         true,
		},
		Webhooks: Webhooks{
			TimeoutSeconds: defaultWebhookTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
