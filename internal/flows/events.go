package flows

import "time"

// EventKind names a controller transition.
type EventKind uint8

const (
	EventStarted EventKind = iota
	EventLinkOpened
	EventForegroundLost
	EventCountdownFinished
	EventVerifyRejected
	EventCheckpointVerified
	EventKeyIssued
	EventReset
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventLinkOpened:
		return "link_opened"
	case EventForegroundLost:
		return "foreground_lost"
	case EventCountdownFinished:
		return "countdown_finished"
	case EventVerifyRejected:
		return "verify_rejected"
	case EventCheckpointVerified:
		return "checkpoint_verified"
	case EventKeyIssued:
		return "key_issued"
	case EventReset:
		return "reset"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event describes one transition. Index is the checkpoint index, or -1 when
// the event is not about a checkpoint. Elapsed is set on EventKeyIssued and
// measures Start to issuance.
type Event struct {
	Kind         EventKind
	Index        int
	CheckpointID int64
	Elapsed      time.Duration
}
