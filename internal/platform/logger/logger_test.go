package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"access_token", "abc",
		"code", "oauth-code",
		"post_id", "p1",
		"platform_user_id", "12345",
	})
	got := map[string]interface{}{}
	for i := 0; i+1 < len(out); i += 2 {
		got[out[i].(string)] = out[i+1]
	}
	if got["access_token"] != "[REDACTED]" || got["code"] != "[REDACTED]" {
		t.Fatalf("expected credentials redacted: %v", got)
	}
	if got["post_id"] != "p1" {
		t.Fatalf("post_id should pass through: %v", got["post_id"])
	}
	if s, _ := got["platform_user_id"].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("platform_user_id should be hashed: %v", got["platform_user_id"])
	}
}

func TestNewTestModeIsSilent(t *testing.T) {
	log, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.With("task", "sweep_publish").Info("tick", "due", 0)
}
