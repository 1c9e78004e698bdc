package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateRunIDIsUnique(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	if !strings.HasPrefix(a, "run_") {
		t.Fatalf("id = %q", a)
	}
	if a == b {
		t.Fatal("expected unique run ids")
	}
}

func TestEnsureScheme(t *testing.T) {
	cases := map[string]string{
		"myntra.com":             "https://myntra.com",
		"http://myntra.com":      "http://myntra.com",
		"https://www.myntra.com": "https://www.myntra.com",
	}
	for in, want := range cases {
		if got := EnsureScheme(in); got != want {
			t.Errorf("EnsureScheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHostIdentifier(t *testing.T) {
	cases := map[string]string{
		"https://www.myntra.com":       "myntra.com",
		"https://www.myntra.com/shoes": "myntra.com",
		"http://myntra.com?src=x":      "myntra.com",
		"myntra.com":                   "myntra.com",
		"www.myntra.com":               "myntra.com",
	}
	for in, want := range cases {
		if got := HostIdentifier(in); got != want {
			t.Errorf("HostIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		250 * time.Millisecond:  "250ms",
		90 * time.Second:        "1.5m",
		7500 * time.Millisecond: "7.5s",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
