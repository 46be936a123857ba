package envutil

import (
	"testing"
	"time"
)

func TestGettersFallBackToDefaults(t *testing.T) {
	t.Setenv("ENVUTIL_BAD_INT", "abc")
	t.Setenv("ENVUTIL_BAD_DUR", "soon")
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Duration("ENVUTIL_BAD_DUR", time.Minute); got != time.Minute {
		t.Fatalf("Duration: got %s", got)
	}
	if got := String("ENVUTIL_UNSET", "x"); got != "x" {
		t.Fatalf("String: got %q", got)
	}
	if got := Bool("ENVUTIL_UNSET", true); !got {
		t.Fatalf("Bool: expected default true")
	}
}

func TestGettersParseValues(t *testing.T) {
	t.Setenv("ENVUTIL_DUR", "2h")
	t.Setenv("ENVUTIL_SECS", "45")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_CSV", " hackernews, ,reddit ")
	if got := Duration("ENVUTIL_DUR", 0); got != 2*time.Hour {
		t.Fatalf("Duration: got %s", got)
	}
	if got := Duration("ENVUTIL_SECS", 0); got != 45*time.Second {
		t.Fatalf("Duration seconds: got %s", got)
	}
	if Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool: expected false")
	}
	got := CSV("ENVUTIL_CSV", nil)
	if len(got) != 2 || got[0] != "hackernews" || got[1] != "reddit" {
		t.Fatalf("CSV: got %v", got)
	}
}
