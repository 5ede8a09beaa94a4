package ids

import (
	"testing"
	"time"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestTimeRoundTrip(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(New())
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if ts.Before(before) {
		t.Fatalf("expected id time after %v, got %v", before, ts)
	}
	if _, err := Time("not-a-ulid"); err == nil {
		t.Fatal("expected parse error")
	}
}
