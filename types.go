package goGate

import (
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goGate/configstore"
	internalaudit "github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/checkpoint"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/MrEthical07/goGate/issuer"
)

// Configuration is the gate configuration edited by the admin surface.
type Configuration = configstore.Configuration

// CheckpointSpec is one entry of [Configuration.Checkpoints].
type CheckpointSpec = configstore.CheckpointSpec

// IssuedKey is the key handed out when a session reaches StepIssued.
type IssuedKey = issuer.IssuedKey

// Clock supplies the current time and repeating callbacks. Tests substitute
// a manual clock through [Builder.WithClock].
type Clock = clock.Clock

// Step names the top-level position of a session.
type Step string

const (
	StepWelcome    Step = "welcome"
	StepCheckpoint Step = "checkpoint"
	StepIssued     Step = "issued"
)

// Phase names the position of the active checkpoint.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseClicked  Phase = "clicked"
	PhaseWaiting  Phase = "waiting"
	PhaseReady    Phase = "ready"
	PhaseVerified Phase = "verified"
)

// SessionView is a point-in-time copy of one session. CheckpointIndex is -1
// unless Step is StepCheckpoint. Key and PayloadScript are only set in
// StepIssued.
type SessionView struct {
	ID               string          `json:"id"`
	Step             Step            `json:"step"`
	CheckpointIndex  int             `json:"checkpointIndex"`
	TotalCheckpoints int             `json:"totalCheckpoints"`
	AppName          string          `json:"appName"`
	KeyExpiryHours   int             `json:"keyExpiryHours"`
	Checkpoint       *CheckpointView `json:"checkpoint,omitempty"`
	Key              *IssuedKey      `json:"key,omitempty"`
	PayloadScript    string          `json:"payloadScript,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// CheckpointView is the active checkpoint and its run state. Error and
// Message are set after a rejected Verify until the link is opened again.
type CheckpointView struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	TargetURL           string `json:"targetUrl"`
	WaitDurationSeconds int    `json:"waitDurationSeconds"`
	Phase               Phase  `json:"phase"`
	RemainingSeconds    int    `json:"remainingSeconds"`
	LeftForeground      bool   `json:"leftForeground"`
	Error               string `json:"error,omitempty"`
	Message             string `json:"message,omitempty"`
}

// PublicConfiguration is the branding a visitor sees before starting.
// Target URLs are only revealed by OpenLink.
type PublicConfiguration struct {
	AppName        string             `json:"appName"`
	KeyExpiryHours int                `json:"keyExpiryHours"`
	Checkpoints    []PublicCheckpoint `json:"checkpoints"`
}

// PublicCheckpoint is the visitor-facing part of a [CheckpointSpec].
type PublicCheckpoint struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	WaitDurationSeconds int    `json:"waitDurationSeconds"`
}

// AdminToken is returned by [Engine.AdminLogin].
type AdminToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AdminIdentity is returned by [Engine.ValidateAdmin].
type AdminIdentity struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// VerifyResult reports what a successful Verify led to.
type VerifyResult struct {
	Session  SessionView `json:"session"`
	Advanced bool        `json:"advanced"`
	Issued   bool        `json:"issued"`
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs each event as one slog record.
type SlogSink = internalaudit.SlogSink

// MultiSink fans each event out to every sink in order.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] that logs to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

func sessionViewFrom(id string, createdAt time.Time, v flows.View) SessionView {
	out := SessionView{
		ID:               id,
		Step:             stepName(v.Step),
		CheckpointIndex:  v.Index,
		TotalCheckpoints: v.Total,
		AppName:          v.AppName,
		KeyExpiryHours:   v.KeyExpiryHours,
		PayloadScript:    v.PayloadScript,
		CreatedAt:        createdAt,
	}
	if v.Checkpoint != nil && v.Run != nil {
		cv := CheckpointView{
			ID:                  v.Checkpoint.ID,
			Title:               v.Checkpoint.Title,
			Description:         v.Checkpoint.Description,
			TargetURL:           v.Checkpoint.TargetURL,
			WaitDurationSeconds: v.Checkpoint.WaitDurationSeconds,
			Phase:               phaseName(v.Run.Phase),
			RemainingSeconds:    v.Run.RemainingSeconds,
			LeftForeground:      v.Run.LeftForeground,
		}
		if v.Run.LastError != checkpoint.ErrorNone {
			cv.Error = v.Run.LastError.String()
			cv.Message = v.Run.LastError.Message()
		}
		out.Checkpoint = &cv
	}
	if v.Key != nil {
		key := *v.Key
		out.Key = &key
	}
	return out
}

func stepName(s flows.Step) Step {
	switch s {
	case flows.StepCheckpoint:
		return StepCheckpoint
	case flows.StepIssued:
		return StepIssued
	default:
		return StepWelcome
	}
}

func phaseName(p checkpoint.Phase) Phase {
	switch p {
	case checkpoint.PhaseClicked:
		return PhaseClicked
	case checkpoint.PhaseWaiting:
		return PhaseWaiting
	case checkpoint.PhaseReady:
		return PhaseReady
	case checkpoint.PhaseVerified:
		return PhaseVerified
	default:
		return PhaseIdle
	}
}

func publicConfigurationFrom(c Configuration) PublicConfiguration {
	out := PublicConfiguration{
		AppName:        c.AppName,
		KeyExpiryHours: c.KeyExpiryHours,
		Checkpoints:    make([]PublicCheckpoint, 0, len(c.Checkpoints)),
	}
	for _, cp := range c.Checkpoints {
		out.Checkpoints = append(out.Checkpoints, PublicCheckpoint{
			ID:                  cp.ID,
			Title:               cp.Title,
			Description:         cp.Description,
			WaitDurationSeconds: cp.WaitDurationSeconds,
		})
	}
	return out
}
