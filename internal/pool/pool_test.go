package pool

import (
	"testing"
	"time"
)

func newTestAccounts(n int) []*Account {
	accounts := make([]*Account, n)
	for i := 0; i < n; i++ {
		accounts[i] = NewAccount(string(rune('a'+i)), "user"+string(rune('a'+i))+"@example.com", "proj")
	}
	return accounts
}

func TestPickEmptyPoolReturnsNoCapacity(t *testing.T) {
	p := New(nil)
	if _, err := p.Pick("gemini-3-pro", ""); err != ErrNoCapacity {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
}

func TestPickSingleAccountPoolReturnsIt(t *testing.T) {
	accounts := newTestAccounts(1)
	p := New(accounts)
	got, err := p.Pick("gemini-3-pro", "")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got.ID != accounts[0].ID {
		t.Fatalf("expected only account, got %s", got.ID)
	}
}

func TestPickRotationRespectsHealth(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)

	p.MarkRotate(accounts[0].ID, 429)

	for i := 0; i < 10; i++ {
		got, err := p.Pick("gemini-3-pro", "")
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if got.ID == accounts[0].ID {
			t.Fatalf("picked cooling account %s, want only %s", accounts[0].ID, accounts[1].ID)
		}
	}
}

func TestPickAllCoolingReturnsNoCapacity(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)
	p.MarkRotate(accounts[0].ID, 500)
	p.MarkRotate(accounts[1].ID, 500)

	if _, err := p.Pick("gemini-3-pro", ""); err != ErrNoCapacity {
		t.Fatalf("expected ErrNoCapacity when all accounts cooling, got %v", err)
	}
}

func TestPickPrefersLessLoadedAccount(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)

	accounts[0].AcquireLease()
	accounts[0].AcquireLease()
	accounts[0].AcquireLease()

	for i := 0; i < 20; i++ {
		got, err := p.Pick("gemini-3-pro", "")
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if got.ID != accounts[1].ID {
			t.Fatalf("expected less-loaded account %s, got %s", accounts[1].ID, got.ID)
		}
	}
}

func TestStickySessionBindingOverridesSelection(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)

	p.Bind("sid-abc123", accounts[0].ID, "gemini-3-pro", time.Minute)

	accounts[1].AcquireLease()
	for i := 0; i < 10; i++ {
		got, err := p.Pick("gemini-3-pro", "sid-abc123")
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if got.ID != accounts[0].ID {
			t.Fatalf("expected bound account %s, got %s", accounts[0].ID, got.ID)
		}
	}
}

func TestStickyBindingFallsBackWhenBoundAccountUnhealthy(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)

	p.Bind("sid-abc123", accounts[0].ID, "gemini-3-pro", time.Minute)
	p.MarkRotate(accounts[0].ID, 401)

	got, err := p.Pick("gemini-3-pro", "sid-abc123")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got.ID != accounts[1].ID {
		t.Fatalf("expected fallback to healthy account %s, got %s", accounts[1].ID, got.ID)
	}
}

func TestStickyBindingExpiresAfterTTL(t *testing.T) {
	accounts := newTestAccounts(2)
	p := New(accounts)

	p.Bind("sid-abc123", accounts[0].ID, "gemini-3-pro", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	accounts[1].AcquireLease()
	got, err := p.Pick("gemini-3-pro", "sid-abc123")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if got.ID != accounts[0].ID {
		t.Fatalf("expected Power-of-Two-Choices after expiry to prefer %s, got %s", accounts[0].ID, got.ID)
	}
}

func TestMarkSuccessClearsCooldown(t *testing.T) {
	accounts := newTestAccounts(1)
	p := New(accounts)
	p.MarkRotate(accounts[0].ID, 500)
	if p.Len() != 0 {
		t.Fatalf("expected 0 healthy after rotate, got %d", p.Len())
	}
	p.MarkSuccess(accounts[0].ID)
	if p.Len() != 1 {
		t.Fatalf("expected 1 healthy after mark_success, got %d", p.Len())
	}
}

func TestLenCountsOnlyHealthy(t *testing.T) {
	accounts := newTestAccounts(3)
	p := New(accounts)
	p.MarkRotate(accounts[0].ID, 500)
	if got := p.Len(); got != 2 {
		t.Fatalf("expected 2 healthy accounts, got %d", got)
	}
}
