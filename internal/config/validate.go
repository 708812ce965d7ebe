package config

import (
	"errors"
	"fmt"
)

func ValidateForRun(cfg *Config) error {
	var errs []error

	if err := cfg.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Postgres.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.AlertStore == nil {
		errs = append(errs, ErrUnknownAlertStore)
	} else if err := cfg.AlertStore.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
