package app

import (
	"testing"
	"time"
)

func TestEnvHelpersDefaults(t *testing.T) {
	if got := EnvString("KEYGATE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("EnvString default: got %q", got)
	}
	if got := EnvBool("KEYGATE_TEST_UNSET", true); !got {
		t.Fatalf("EnvBool default: got %v", got)
	}
	if got := EnvInt("KEYGATE_TEST_UNSET", 7); got != 7 {
		t.Fatalf("EnvInt default: got %d", got)
	}
	if got := EnvDuration("KEYGATE_TEST_UNSET", time.Minute); got != time.Minute {
		t.Fatalf("EnvDuration default: got %v", got)
	}
}

func TestEnvHelpersParse(t *testing.T) {
	t.Setenv("KEYGATE_TEST_STR", "value")
	t.Setenv("KEYGATE_TEST_BOOL", "true")
	t.Setenv("KEYGATE_TEST_INT", "42")
	t.Setenv("KEYGATE_TEST_INT32", "12")
	t.Setenv("KEYGATE_TEST_DUR", "90s")
	t.Setenv("KEYGATE_TEST_BAD_INT", "not-a-number")

	if got := EnvString("KEYGATE_TEST_STR", ""); got != "value" {
		t.Fatalf("EnvString: got %q", got)
	}
	if got := EnvBool("KEYGATE_TEST_BOOL", false); !got {
		t.Fatalf("EnvBool: got %v", got)
	}
	if got := EnvInt("KEYGATE_TEST_INT", 0); got != 42 {
		t.Fatalf("EnvInt: got %d", got)
	}
	if got := EnvInt32("KEYGATE_TEST_INT32", 0); got != 12 {
		t.Fatalf("EnvInt32: got %d", got)
	}
	if got := EnvDuration("KEYGATE_TEST_DUR", 0); got != 90*time.Second {
		t.Fatalf("EnvDuration: got %v", got)
	}
	if got := EnvInt("KEYGATE_TEST_BAD_INT", 5); got != 5 {
		t.Fatalf("EnvInt bad value must fall back: got %d", got)
	}
}
