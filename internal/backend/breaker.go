package backend

import (
	"sync"
	"time"
)

// breaker is a consecutive-failure circuit breaker for one endpoint family.
// While open, calls short-circuit to a server_error outcome without network
// I/O; after the cooldown a single probe call is let through.
type breaker struct {
	mu               sync.Mutex
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	failures int
	openedAt time.Time
	open     bool
}

func newBreaker(failureThreshold int, cooldown time.Duration, now func() time.Time) *breaker {
	if now == nil {
		now = time.Now
	}
	return &breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              now,
	}
}

// allow reports whether a call may proceed. An open breaker allows one probe
// once the cooldown has elapsed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// Half-open: permit a probe and restart the cooldown so a failing
		// probe does not unleash a thundering herd.
		b.openedAt = b.now()
		return true
	}
	return false
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// recordFailure returns true when this failure opened the circuit.
func (b *breaker) recordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if !b.open && b.failures >= b.failureThreshold {
		b.open = true
		b.openedAt = b.now()
		return true
	}
	if b.open {
		b.openedAt = b.now()
	}
	return false
}

// breakerSet lazily maintains one breaker per endpoint key.
type breakerSet struct {
	mu       sync.Mutex
	breakers map[string]*breaker
	make     func() *breaker
}

func newBreakerSet(mk func() *breaker) *breakerSet {
	return &breakerSet{breakers: make(map[string]*breaker), make: mk}
}

func (s *breakerSet) get(key string) *breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[key]
	if !ok {
		b = s.make()
		s.breakers[key] = b
	}
	return b
}
