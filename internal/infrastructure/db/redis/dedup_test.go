package redis

import (
	"testing"
	"time"
)

func TestNewDedupChecker_TTL(t *testing.T) {
	if d := NewDedupChecker(nil, 0); d.ttl != defaultDedupTTL {
		t.Errorf("zero ttl must fall back to default, got %v", d.ttl)
	}
	if d := NewDedupChecker(nil, -time.Second); d.ttl != defaultDedupTTL {
		t.Errorf("negative ttl must fall back to default, got %v", d.ttl)
	}
	if d := NewDedupChecker(nil, time.Minute); d.ttl != time.Minute {
		t.Errorf("explicit ttl must be kept, got %v", d.ttl)
	}
}

func TestDedupChecker_KeyFormat(t *testing.T) {
	d := NewDedupChecker(nil, 0)
	got := d.key("ABCD12345678", "49.0041951", "-122.7322901", "IN_TRANSIT")
	want := "loc:ABCD12345678:49.0041951:-122.7322901:IN_TRANSIT"
	if got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}
