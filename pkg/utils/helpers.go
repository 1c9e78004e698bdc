package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID returns a unique identifier for one batch run.
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", uuid.New().String())
}

// EnsureScheme prefixes a bare domain with https so it can be navigated to.
func EnsureScheme(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "https://" + target
}

// HostIdentifier reduces a target URL or domain to the bare identifier used
// for substring matching against result URLs.
func HostIdentifier(target string) string {
	s := strings.TrimPrefix(target, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// FormatDuration renders a duration in a log-friendly form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
