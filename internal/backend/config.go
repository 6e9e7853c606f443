package backend

import (
	"fmt"

	"cashbook/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	docstoreType := DocstoreType(appConfig.DataBackend)
	if !docstoreType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: docstoreType,

		GCSBucket: appConfig.GCSBucket,
		GCSPrefix: appConfig.GCSPrefix,

		PrefsDBPath: appConfig.PrefsDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case GCSDocstore:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs backend")
		}
	case MemoryDocstore:
		// Nothing else required.
	}

	if c.PrefsDBPath == "" {
		return fmt.Errorf("preference database path is required")
	}

	return nil
}
