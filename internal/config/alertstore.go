package config

import (
	"os"
	"strconv"
	"time"
)

type AlertStoreBackend string

const (
	AlertStoreMemory     AlertStoreBackend = "memory"
	AlertStoreRedis      AlertStoreBackend = "redis"
	AlertStoreCloudTasks AlertStoreBackend = "cloudtasks"
)

const (
	alertStoreEnv        = "ALERT_STORE"
	dispatchIntervalEnv  = "ALERT_DISPATCH_INTERVAL"
	dispatchBatchSizeEnv = "ALERT_DISPATCH_BATCH_SIZE"
	fireQueueIDEnv       = "ALERT_FIRE_QUEUE_ID"
	fireURLEnv           = "ALERT_FIRE_URL"
	fireInvokerEnv       = "ALERT_FIRE_SERVICE_ACCOUNT"

	defaultDispatchInterval  = time.Second
	defaultDispatchBatchSize = 100
)

type AlertStoreConfig struct {
	Backend           AlertStoreBackend
	DispatchInterval  time.Duration
	DispatchBatchSize int

	// Cloud Tasks queue that holds armed occurrences and the webhook it calls.
	FireQueueID string
	FireURL     string
	FireInvoker string
}

func LoadAlertStoreConfig() (*AlertStoreConfig, error) {
	backend := AlertStoreBackend(os.Getenv(alertStoreEnv))
	if backend == "" {
		backend = AlertStoreRedis
	}

	interval := defaultDispatchInterval
	if raw := os.Getenv(dispatchIntervalEnv); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, ErrInvalidDispatchSetting
		}
		interval = parsed
	}

	batchSize := defaultDispatchBatchSize
	if raw := os.Getenv(dispatchBatchSizeEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrInvalidDispatchSetting
		}
		batchSize = parsed
	}

	return &AlertStoreConfig{
		Backend:           backend,
		DispatchInterval:  interval,
		DispatchBatchSize: batchSize,
		FireQueueID:       os.Getenv(fireQueueIDEnv),
		FireURL:           os.Getenv(fireURLEnv),
		FireInvoker:       os.Getenv(fireInvokerEnv),
	}, nil
}

// Polled reports whether alerts are fired by the in-process dispatcher.
func (c *AlertStoreConfig) Polled() bool {
	return c.Backend != AlertStoreCloudTasks
}

func (c *AlertStoreConfig) Validate() error {
	switch c.Backend {
	case AlertStoreMemory, AlertStoreRedis:
		if c.DispatchInterval <= 0 || c.DispatchBatchSize <= 0 {
			return ErrInvalidDispatchSetting
		}
	case AlertStoreCloudTasks:
		if c.FireQueueID == "" || c.FireURL == "" {
			return ErrFireQueueMissing
		}
	default:
		return ErrUnknownAlertStore
	}
	return nil
}
