package security

import (
	"net/http"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestIPLimiter_BurstThenDeny(t *testing.T) {
	lim := NewIPLimiter(rate.Limit(1), 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !lim.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should pass", i+1)
		}
	}
	if lim.Allow("10.0.0.1") {
		t.Error("request beyond burst should be denied")
	}
}

func TestIPLimiter_PerIPIsolation(t *testing.T) {
	lim := NewIPLimiter(rate.Limit(1), 1, time.Minute)

	if !lim.Allow("10.0.0.1") {
		t.Fatal("first ip should pass")
	}
	if lim.Allow("10.0.0.1") {
		t.Error("first ip exhausted its burst")
	}
	if !lim.Allow("10.0.0.2") {
		t.Error("second ip has its own bucket")
	}
}

func TestIPLimiter_EmptyIPBuckets(t *testing.T) {
	lim := NewIPLimiter(rate.Limit(1), 1, time.Minute)

	if !lim.Allow("") {
		t.Fatal("empty ip maps to a shared bucket")
	}
	if lim.Allow("  ") {
		t.Error("whitespace ip shares the same bucket")
	}
}

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"203.0.113.9:51234", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remote}
		if got := ClientIPFromRequest(r); got != tt.want {
			t.Errorf("ClientIPFromRequest(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
