package pool

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrNoCapacity is returned by Pick when no healthy account is available.
var ErrNoCapacity = errors.New("pool: no capacity")

// AccountPool is the scheduler over a fixed set of accounts.
type AccountPool struct {
	mu       sync.RWMutex
	accounts []*Account
	byID     map[string]*Account

	bindings *bindingTable
}

// New constructs an AccountPool from the given accounts.
func New(accounts []*Account) *AccountPool {
	byID := make(map[string]*Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &AccountPool{
		accounts: accounts,
		byID:     byID,
		bindings: newBindingTable(),
	}
}

// Len reports the count of currently healthy accounts.
func (p *AccountPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, a := range p.accounts {
		if a.IsHealthy(now) {
			n++
		}
	}
	return n
}

// Total reports the full configured account count, healthy or not — used
// by the metrics gauge to show capacity alongside Len's live figure.
func (p *AccountPool) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts)
}

// Pick selects an account for physicalModel, honoring a sticky session
// binding when sid is non-empty and still live, else Power-of-Two-Choices
// over the healthy set. Pick never blocks on network I/O — only a
// read lock over the in-memory account slice and binding table.
func (p *AccountPool) Pick(physicalModel, sid string) (*Account, error) {
	now := time.Now()

	if sid != "" {
		if bound := p.bindings.get(sid, physicalModel); bound != "" {
			p.mu.RLock()
			acc, ok := p.byID[bound]
			p.mu.RUnlock()
			if ok && acc.IsHealthy(now) {
				return acc, nil
			}
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var healthy []*Account
	for _, a := range p.accounts {
		if a.IsHealthy(now) {
			healthy = append(healthy, a)
		}
	}

	switch len(healthy) {
	case 0:
		return nil, ErrNoCapacity
	case 1:
		return healthy[0], nil
	}

	i, j := twoDistinctIndices(len(healthy))
	a, b := healthy[i], healthy[j]
	return pickLessLoaded(a, b), nil
}

// pickLessLoaded implements the Power-of-Two-Choices tie-break: fewer
// in-flight leases wins; on a tie, the older last_success wins.
func pickLessLoaded(a, b *Account) *Account {
	la, lb := a.InFlight(), b.InFlight()
	if la != lb {
		if la < lb {
			return a
		}
		return b
	}
	if a.LastSuccess().Before(b.LastSuccess()) {
		return a
	}
	return b
}

func twoDistinctIndices(n int) (int, int) {
	i := rand.Intn(n)
	j := rand.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

// MarkSuccess records a successful call for the given account id.
func (p *AccountPool) MarkSuccess(accountID string) {
	p.mu.RLock()
	acc, ok := p.byID[accountID]
	p.mu.RUnlock()
	if ok {
		acc.MarkSuccess(time.Now())
	}
}

// MarkRotate cools down the given account per the reason's backoff.
func (p *AccountPool) MarkRotate(accountID string, reasonStatus int) {
	p.mu.RLock()
	acc, ok := p.byID[accountID]
	p.mu.RUnlock()
	if ok {
		acc.MarkRotate(time.Now(), reasonStatus)
	}
}

// Bind records a sticky session binding, replacing any existing entry for
// (sid, modelFamily) and restarting its TTL.
func (p *AccountPool) Bind(sid, accountID, modelFamily string, ttl time.Duration) {
	if sid == "" {
		return
	}
	p.bindings.set(sid, modelFamily, accountID, ttl)
}

// Unbind drops a sticky session binding, used when the orchestrator rotates
// away from a bound account that turned out to be the offender.
func (p *AccountPool) Unbind(sid, modelFamily string) {
	p.bindings.delete(sid, modelFamily)
}

// FindByEmail looks up an account by its OAuth email, regardless of health
// state — used by the warmup route, which targets a specific operator-named
// account rather than letting Pick choose one.
func (p *AccountPool) FindByEmail(email string) (*Account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, a := range p.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return nil, false
}
