package retry

import "testing"

func TestForStatus400SignatureBugRetriesOnce(t *testing.T) {
	d := ForStatus(400, 0, 0, "Corrupted thought signature detected")
	if !d.Retry || d.Delay != 200e6 {
		t.Fatalf("expected one retry at 200ms, got %+v", d)
	}
	d2 := ForStatus(400, 1, 0, "Corrupted thought signature detected")
	if d2.Retry {
		t.Fatalf("expected no retry on second attempt, got %+v", d2)
	}
}

func TestForStatus400GenericDoesNotRetry(t *testing.T) {
	d := ForStatus(400, 0, 0, "missing required field 'model'")
	if d.Retry {
		t.Fatalf("expected no retry for generic 400, got %+v", d)
	}
}

func TestForStatus429UsesRetryAfterWhenPresent(t *testing.T) {
	d := ForStatus(429, 0, 2000, "")
	if !d.Retry || d.Delay != 2200e6 {
		t.Fatalf("expected 2200ms delay, got %+v", d)
	}
}

func TestForStatus429CapsRetryAfterAt30s(t *testing.T) {
	d := ForStatus(429, 0, 60000, "")
	if d.Delay != 30000e6 {
		t.Fatalf("expected cap at 30s, got %+v", d)
	}
}

func TestForStatus429LinearWithoutRetryAfter(t *testing.T) {
	d0 := ForStatus(429, 0, 0, "")
	d1 := ForStatus(429, 1, 0, "")
	if d0.Delay != 5000e6 || d1.Delay != 10000e6 {
		t.Fatalf("expected linear 5000*(attempt+1), got %+v %+v", d0, d1)
	}
}

func TestForStatus503ExponentialCapsAt60s(t *testing.T) {
	d := ForStatus(503, 3, 0, "")
	if d.Delay != 60000e6 {
		t.Fatalf("expected cap at 60s, got %+v", d)
	}
}

func TestShouldRotateMatchesSpecSet(t *testing.T) {
	rotate := map[int]bool{401: true, 403: true, 404: true, 429: true, 500: true, 503: false, 529: false, 400: false}
	for status, want := range rotate {
		if got := ShouldRotate(status); got != want {
			t.Errorf("ShouldRotate(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestMaxAttemptsFloorsByProtocol(t *testing.T) {
	if got := MaxAttempts(0, "openai"); got != 2 {
		t.Fatalf("expected floor 2 for openai with empty pool, got %d", got)
	}
	if got := MaxAttempts(0, "gemini"); got != 1 {
		t.Fatalf("expected floor 1 for gemini with empty pool, got %d", got)
	}
	if got := MaxAttempts(5, "claude"); got != 3 {
		t.Fatalf("expected cap 3 for large pool, got %d", got)
	}
}
