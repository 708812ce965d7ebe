package config

import (
	"os"
	"strconv"
	"time"
)

const (
	reminderTimezoneEnv = "REMINDER_TIMEZONE"
	dedupeWindowEnv     = "ADHERENCE_DEDUPE_WINDOW"
	promptBufferEnv     = "PROMPT_BUFFER_SIZE"

	defaultPromptBuffer = 8
)

type ReminderConfig struct {
	// Location is the wall clock that medication clock times refer to.
	Location *time.Location
	// DedupeWindow suppresses repeated intakes of one medication within the
	// window. Zero disables the guard.
	DedupeWindow time.Duration
	PromptBuffer int
}

func LoadReminderConfig() (*ReminderConfig, error) {
	loc := time.Local
	if name := os.Getenv(reminderTimezoneEnv); name != "" {
		parsed, err := time.LoadLocation(name)
		if err != nil {
			return nil, ErrInvalidTimezone
		}
		loc = parsed
	}

	var window time.Duration
	if raw := os.Getenv(dedupeWindowEnv); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			return nil, ErrInvalidDedupeWindow
		}
		window = parsed
	}

	buffer := defaultPromptBuffer
	if raw := os.Getenv(promptBufferEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidPromptBuffer
		}
		buffer = parsed
	}

	return &ReminderConfig{
		Location:     loc,
		DedupeWindow: window,
		PromptBuffer: buffer,
	}, nil
}
