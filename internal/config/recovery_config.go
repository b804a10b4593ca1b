// Package config owns the two configuration shapes the recovery agent
// loads: RecoveryConfig, the validated tuning parameters consumed by
// Controller.Configure, and AgentConfig, the process-level settings loaded
// via viper (host id, tick interval, admin listen address, log sink).
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sequenceiq/ambari-agent/internal/agentmsg"
)

// Defaults for fields omitted from a registration response.
const (
	DefaultMaxCount         = 6
	DefaultWindowInMinutes  = 60
	DefaultRetryGap         = 5
	DefaultMaxLifetimeCount = 12
)

// RecoveryConfig is the validated maxCount/windowInMin/retryGap/
// maxLifetimeCount/mode tuple that governs recovery admission for a host.
// Struct tags cover the static per-field bounds; cross-field rules that
// tags can't express live in Validate.
type RecoveryConfig struct {
	Mode             agentmsg.RecoveryMode `validate:"required,oneof=DISABLED AUTO_START FULL"`
	MaxCount         int                   `validate:"gt=0"`
	WindowInMin      int                   `validate:"gt=0"`
	RetryGap         int                   `validate:"gte=1"`
	MaxLifetimeCount int                   `validate:"gte=0"`
}

var structValidator = validator.New()

// Validate runs struct-tag validation followed by the cross-field rules:
// retryGap < windowInMin, maxLifetimeCount >= maxCount. Returns the first
// violation found; Controller.Configure disables recovery on any error.
func (c RecoveryConfig) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("recovery config: %w", err)
	}
	if c.RetryGap >= c.WindowInMin {
		return fmt.Errorf("recovery config: retryGap (%d) must be less than windowInMin (%d)", c.RetryGap, c.WindowInMin)
	}
	if c.MaxLifetimeCount < c.MaxCount {
		return fmt.Errorf("recovery config: maxLifetimeCount (%d) must be >= maxCount (%d)", c.MaxLifetimeCount, c.MaxCount)
	}
	return nil
}

// FromRegistration translates a server registration response into a
// RecoveryConfig, applying defaults for omitted fields. Non-integer wire
// values silently fall back to their default rather than failing
// registration.
func FromRegistration(r agentmsg.RegistrationResponse) RecoveryConfig {
	mode := agentmsg.ModeDisabled
	switch r.Type {
	case agentmsg.RegistrationAutoStart:
		mode = agentmsg.ModeAutoStart
	case agentmsg.RegistrationFull:
		mode = agentmsg.ModeFull
	}

	return RecoveryConfig{
		Mode:             mode,
		MaxCount:         intOrDefault(r.MaxCount, DefaultMaxCount),
		WindowInMin:      intOrDefault(r.WindowInMinutes, DefaultWindowInMinutes),
		RetryGap:         intOrDefault(r.RetryGap, DefaultRetryGap),
		MaxLifetimeCount: intOrDefault(r.MaxLifetimeCount, DefaultMaxLifetimeCount),
	}
}

// intOrDefault extracts an int from a loosely-typed JSON numeric field
// (float64 after decoding, or already an int), falling back to def for any
// other type including a missing/nil field.
func intOrDefault(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
