package config

const (
	// ProviderNop disables event publishing.
	ProviderNop = "nop"

	// ProviderKafka publishes generation events to Kafka.
	ProviderKafka = "kafka"

	// StorageInMemory as storage.sqlite_path keeps the archive in memory.
	StorageInMemory = "memory"

	// DefaultSQLiteFile is the archive file created in the config directory
	// when storage.sqlite_path is unset.
	DefaultSQLiteFile = "gongwen.sqlite"

	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = "30s"

	defaultDocType = "通知"

	defaultEventProvider = ProviderNop
	defaultEventTopic    = "gongwen.generations"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Generate: GenerateConfig{
			DocType: defaultDocType,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventProvider,
			Topic:    defaultEventTopic,
		},
		UI: UIConfig{
			Pretty:   true,
			Markdown: true,
		},
	}
}

// DefaultMockListen is where "gongwen mock" listens unless told otherwise.
const DefaultMockListen = ":8765"
