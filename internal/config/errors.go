package config

import "errors"

var (
	ErrRedisAddrMissing       = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB         = errors.New("REDIS_DB must be a valid integer")
	ErrDatabaseURLMissing     = errors.New("DATABASE_URL is required")
	ErrInvalidMaxConns        = errors.New("DATABASE_MAX_CONNS must be a positive integer")
	ErrInvalidTimezone        = errors.New("REMINDER_TIMEZONE is not a known IANA timezone")
	ErrInvalidDedupeWindow    = errors.New("ADHERENCE_DEDUPE_WINDOW must be a non-negative duration")
	ErrInvalidPromptBuffer    = errors.New("PROMPT_BUFFER_SIZE must be a positive integer")
	ErrUnknownAlertStore      = errors.New("ALERT_STORE must be one of memory, redis, cloudtasks")
	ErrInvalidDispatchSetting = errors.New("ALERT_DISPATCH_INTERVAL and ALERT_DISPATCH_BATCH_SIZE must be positive")
	ErrFireQueueMissing       = errors.New("ALERT_FIRE_QUEUE_ID and ALERT_FIRE_URL are required for the cloudtasks alert store")
)
