package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// StorageKey is the record name the active configuration is persisted under.
const StorageKey = "nexus_config"

const (
	// MaxCheckpoints bounds the checkpoint list accepted from the admin surface.
	MaxCheckpoints = 16
	// MaxKeyPrefixLength bounds the key prefix in characters.
	MaxKeyPrefixLength = 32
)

var (
	// ErrConfigMalformed is returned when a persisted record cannot be decoded.
	ErrConfigMalformed = errors.New("configuration malformed")
	// ErrConfigInvalid is returned when a configuration fails validation.
	ErrConfigInvalid = errors.New("configuration invalid")
	// ErrNotFound is returned by a Backend that holds no record.
	ErrNotFound = errors.New("configuration not found")
	// ErrBackendUnavailable wraps transport or driver failures of a Backend.
	ErrBackendUnavailable = errors.New("configuration backend unavailable")
)

// CheckpointSpec describes one verification step.
type CheckpointSpec struct {
	ID                  int64  `json:"id" yaml:"id"`
	Title               string `json:"title" yaml:"title"`
	Description         string `json:"description" yaml:"description"`
	TargetURL           string `json:"targetUrl" yaml:"target_url"`
	WaitDurationSeconds int    `json:"waitDurationSeconds" yaml:"wait_duration_seconds"`
}

// Configuration is the admin-editable application configuration. It is
// replaced wholesale; flows treat a loaded value as immutable.
type Configuration struct {
	AppName        string           `json:"appName" yaml:"app_name"`
	KeyPrefix      string           `json:"keyPrefix" yaml:"key_prefix"`
	KeyExpiryHours int              `json:"keyExpiryHours" yaml:"key_expiry_hours"`
	Checkpoints    []CheckpointSpec `json:"checkpoints" yaml:"checkpoints"`
	PayloadScript  string           `json:"payloadScript" yaml:"payload_script"`
}

// Default returns the configuration used on first run and whenever the
// persisted record is absent or unusable.
func Default() Configuration {
	const appName = "BURAT HUB"
	return Configuration{
		AppName:        appName,
		KeyPrefix:      "BURAT-",
		KeyExpiryHours: 10,
		Checkpoints: []CheckpointSpec{
			{
				ID:                  1,
				Title:               "Checkpoint 1: Sponsor Validation",
				Description:         "Visit our partner site to proceed. Wait 5 seconds after the page loads to verify your session.",
				TargetURL:           "https://example.com/sponsor-1",
				WaitDurationSeconds: 5,
			},
			{
				ID:                  2,
				Title:               "Checkpoint 2: Final Verification",
				Description:         "Complete the final step by visiting the second partner link. Your key will be generated immediately after.",
				TargetURL:           "https://example.com/sponsor-2",
				WaitDurationSeconds: 8,
			},
		},
		PayloadScript: "-- Default Script loaded from " + appName + "\nprint(\"Hello World\")",
	}
}

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Checkpoints != nil {
		out.Checkpoints = make([]CheckpointSpec, len(c.Checkpoints))
		copy(out.Checkpoints, c.Checkpoints)
	}
	return out
}

// Validate checks the invariants the flow layers rely on.
func (c Configuration) Validate() error {
	if c.KeyPrefix == "" {
		return fmt.Errorf("%w: keyPrefix must not be empty", ErrConfigInvalid)
	}
	if utf8.RuneCountInString(c.KeyPrefix) > MaxKeyPrefixLength {
		return fmt.Errorf("%w: keyPrefix longer than %d characters", ErrConfigInvalid, MaxKeyPrefixLength)
	}
	if c.KeyExpiryHours <= 0 {
		return fmt.Errorf("%w: keyExpiryHours must be > 0", ErrConfigInvalid)
	}
	if len(c.Checkpoints) > MaxCheckpoints {
		return fmt.Errorf("%w: at most %d checkpoints are allowed", ErrConfigInvalid, MaxCheckpoints)
	}

	seen := make(map[int64]struct{}, len(c.Checkpoints))
	for i, cp := range c.Checkpoints {
		if _, dup := seen[cp.ID]; dup {
			return fmt.Errorf("%w: checkpoint %d reuses id %d", ErrConfigInvalid, i, cp.ID)
		}
		seen[cp.ID] = struct{}{}

		if cp.WaitDurationSeconds < 0 {
			return fmt.Errorf("%w: checkpoint %d waitDurationSeconds must be >= 0", ErrConfigInvalid, i)
		}
		if err := validateTargetURL(cp.TargetURL); err != nil {
			return fmt.Errorf("%w: checkpoint %d %v", ErrConfigInvalid, i, err)
		}
	}

	return nil
}

func validateTargetURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("targetUrl: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("targetUrl must use http or https")
	}
	if u.Host == "" {
		return errors.New("targetUrl must be absolute")
	}
	return nil
}

// Decode parses a persisted record. Records written before the payload
// script was renamed carry it as luaScript; that name is honored when
// payloadScript is absent.
func Decode(data []byte) (Configuration, error) {
	var wire struct {
		Configuration
		LuaScript *string `json:"luaScript"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	cfg := wire.Configuration
	if wire.LuaScript != nil && !hasField(data, "payloadScript") {
		cfg.PayloadScript = *wire.LuaScript
	}
	return cfg, nil
}

// Encode renders c as the persisted JSON record.
func Encode(c Configuration) ([]byte, error) {
	if c.Checkpoints == nil {
		c.Checkpoints = []CheckpointSpec{}
	}
	return json.Marshal(c)
}

func hasField(data []byte, name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}
