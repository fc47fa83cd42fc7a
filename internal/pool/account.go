// Package pool implements the account scheduler: Power-of-Two-Choices
// selection among healthy OAuth-backed accounts, sticky session binding, and
// cooldown-based rotation on specific upstream status codes. The per-account
// mutex + atomic-counter + TTL-map shape is grounded on the teacher's
// internal/oauth.Registry (map+sync.RWMutex+cleanup-goroutine idiom), adapted
// here from pending-OAuth-request bookkeeping to live account health state.
package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Health is the account's current scheduling eligibility.
type Health int

const (
	HealthHealthy Health = iota
	HealthCooling
	HealthDisabled
)

// Account is one OAuth-backed upstream identity in the pool.
type Account struct {
	ID        string
	Email     string
	ProjectID string

	// RefreshMeta carries the OAuth token/refresh bookkeeping; actual token
	// refresh is an external collaborator's responsibility,
	// this field only types the shape the pool hands back to the caller.
	RefreshMeta oauth2Token

	mu          sync.Mutex
	health      Health
	coolingUntil time.Time
	lastSuccess time.Time

	inFlight atomic.Int64

	// Breaker trips on repeated upstream failures independent of the
	// cooldown clock, giving a second circuit-level line of defense per
	// account (golang.org/x/time/rate throttles request rate; gobreaker
	// throttles failure rate).
	Breaker *gobreaker.CircuitBreaker
	Limiter *rate.Limiter
}

// oauth2Token is a minimal placeholder shape for the refresh-token metadata
// an external OAuth collaborator would populate; the pool never calls the
// refresh flow itself ( Non-goals: "OAuth device-flow acquisition of
// refresh tokens" is an external collaborator).
type oauth2Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// NewAccount constructs an Account with its per-account breaker and soft
// rate limiter armed, healthy by default.
func NewAccount(id, email, projectID string) *Account {
	a := &Account{ID: id, Email: email, ProjectID: projectID, health: HealthHealthy}
	a.Breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "account:" + id,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 8 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	a.Limiter = rate.NewLimiter(rate.Limit(5), 10)
	return a
}

// IsHealthy reports whether the account is currently eligible for pick,
// clearing an expired cooldown as a side effect. An open circuit breaker
// also counts as unhealthy, giving the failure-rate-based defense layer
// actual say over scheduling rather than just bookkeeping.
func (a *Account) IsHealthy(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.health == HealthCooling && now.After(a.coolingUntil) {
		a.health = HealthHealthy
	}
	if a.health != HealthHealthy {
		return false
	}
	return a.Breaker.State() != gobreaker.StateOpen
}

// InFlight returns the current in-flight lease count.
func (a *Account) InFlight() int64 { return a.inFlight.Load() }

// LastSuccess returns the last successful call's timestamp.
func (a *Account) LastSuccess() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSuccess
}

// AcquireLease increments the in-flight counter; ReleaseLease decrements it.
// Callers must always pair these, including on cancellation ("in-flight
// lease is released; no success mark").
func (a *Account) AcquireLease() { a.inFlight.Add(1) }
func (a *Account) ReleaseLease() { a.inFlight.Add(-1) }

// MarkSuccess resets any cooldown and updates last_success.
func (a *Account) MarkSuccess(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health = HealthHealthy
	a.coolingUntil = time.Time{}
	a.lastSuccess = now
}

// MarkRotate moves the account into cooldown for the backoff duration
// associated with reasonCode.
func (a *Account) MarkRotate(now time.Time, reasonCode int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health = HealthCooling
	a.coolingUntil = now.Add(BackoffFor(reasonCode))
}

// CoolingUntil returns the current cooldown expiry (zero value if none).
func (a *Account) CoolingUntil() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.coolingUntil
}

// BackoffFor returns the cooldown duration for the upstream HTTP status
// that triggered a rotation: 15s for 401/403, 60s for 429, 10s for
// 500/503/529, 5s for 404.
func BackoffFor(statusCode int) time.Duration {
	switch statusCode {
	case 401, 403:
		return 15 * time.Second
	case 429:
		return 60 * time.Second
	case 500, 503, 529:
		return 10 * time.Second
	case 404:
		return 5 * time.Second
	default:
		return 10 * time.Second
	}
}
