package defaults

import (
	"strings"
	"testing"
	"time"
)

func TestScanDefaults(t *testing.T) {
	if MaxPages != 20 {
		t.Errorf("MaxPages = %d, want 20", MaxPages)
	}
	if Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", Timeout)
	}
	if MaxPages > MaxPagesLimit {
		t.Error("MaxPages must not exceed MaxPagesLimit")
	}
}

func TestUserAgent(t *testing.T) {
	tests := []struct {
		context string
		want    string
	}{
		{"", UAMinimal},
		{"crawl", "webprobe/" + Version + " (crawl)"},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			if got := UserAgent(tt.context); got != tt.want {
				t.Errorf("UserAgent(%q) = %q, want %q", tt.context, got, tt.want)
			}
		})
	}
	if !strings.Contains(UABot, Version) {
		t.Errorf("UABot %q does not carry version", UABot)
	}
}

func TestExitCodesDistinct(t *testing.T) {
	codes := []int{ExitSuccess, ExitFindings, ExitUserError, ExitNetworkError, ExitInternalError}
	seen := map[int]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}
