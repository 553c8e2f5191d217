package flows

import (
	"time"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/MrEthical07/goGate/internal/clock"
	"github.com/MrEthical07/goGate/issuer"
)

// KeyIssuer produces the key handed out on completion.
type KeyIssuer interface {
	Issue(prefix string, expiryHours int, now time.Time) (issuer.IssuedKey, error)
}

// Deps captures controller dependencies. Config and Issuer are required.
type Deps struct {
	Config   func() configstore.Configuration
	Issuer   KeyIssuer
	Clock    clock.Clock
	Interval time.Duration
	Navigate func(targetURL string)
	Hooks    Hooks
}

// Hooks receives controller events. OnEvent is called without the
// controller's lock held and may be called from a clock goroutine.
type Hooks struct {
	OnEvent func(Event)
}
