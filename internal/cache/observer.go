package cache

import "time"

// ExpirySource says which mechanism removed an expired entry.
type ExpirySource string

const (
	ExpiredOnRead  ExpirySource = "read"
	ExpiredBySweep ExpirySource = "sweep"
)

// Observer receives cache events. Implementations must be safe for concurrent use
// and must not call back into the Cache.
//
// Events are emitted after the shard lock is released.
type Observer interface {
	// Hit is called when Get returns a live value.
	Hit()

	// Miss is called when Get finds nothing, or finds an expired entry.
	Miss()

	// Stored is called after a successful Set.
	Stored()

	// Forgotten is called after a successful Delete, whether or not the key existed.
	Forgotten()

	// Expired is called when n expired entries were removed by source.
	Expired(source ExpirySource, n int)

	// Swept is called at the end of every sweep.
	Swept(removed, remaining int, elapsed time.Duration)
}

// NoopObserver drops every event.
type NoopObserver struct{}

func (NoopObserver) Hit()                          {}
func (NoopObserver) Miss()                         {}
func (NoopObserver) Stored()                       {}
func (NoopObserver) Forgotten()                    {}
func (NoopObserver) Expired(ExpirySource, int)     {}
func (NoopObserver) Swept(int, int, time.Duration) {}
