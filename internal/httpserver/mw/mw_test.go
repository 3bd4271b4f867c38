package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tofixx/mymovieflip/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, host, remote string) int {
	r := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	r.Host = host
	r.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"movies.local", " *.Example.com "}, logger.Nop())(ok)

	tests := []struct {
		host string
		want int
	}{
		{"movies.local", http.StatusNoContent},
		{"movies.local:8080", http.StatusNoContent},
		{"MOVIES.LOCAL", http.StatusNoContent},
		{"tv.example.com", http.StatusNoContent},
		{"example.com", http.StatusForbidden},
		{"evilexample.com", http.StatusForbidden},
		{"other.local", http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := serve(h, tt.host, "192.0.2.1:1"); got != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, got, tt.want)
		}
	}

	open := EnforceHost(nil, logger.Nop())(ok)
	if got := serve(open, "anything", "192.0.2.1:1"); got != http.StatusNoContent {
		t.Errorf("empty allowlist: status = %d", got)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(ok)

	if got := serve(h, "x", "10.2.3.4:9"); got != http.StatusNoContent {
		t.Errorf("inside: status = %d", got)
	}
	if got := serve(h, "x", "192.0.2.1:9"); got != http.StatusForbidden {
		t.Errorf("outside: status = %d", got)
	}

	open := AllowOnlyCIDRS(nil, false, logger.Nop())(ok)
	if got := serve(open, "x", "192.0.2.1:9"); got != http.StatusNoContent {
		t.Errorf("empty allowlist: status = %d", got)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Requests: 1, Window: time.Minute})(ok)

	if got := serve(h, "x", "192.0.2.1:1"); got != http.StatusNoContent {
		t.Fatalf("first request: status = %d", got)
	}
	if got := serve(h, "x", "192.0.2.1:2"); got != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", got)
	}
	if got := serve(h, "x", "192.0.2.2:1"); got != http.StatusNoContent {
		t.Errorf("other client: status = %d", got)
	}

	off := RateLimit(RateLimitConfig{})(ok)
	for i := 0; i < 5; i++ {
		if got := serve(off, "x", "192.0.2.1:1"); got != http.StatusNoContent {
			t.Fatalf("disabled limiter: status = %d", got)
		}
	}
}
