package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingFileIsNoop(t *testing.T) {
	if err := LoadFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoadFileLoadsValuesAndPreservesExisting(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "" +
		"# comment\n" +
		"OPENCLAW_TEST_FROM_FILE=loaded\n" +
		"OPENCLAW_TEST_QUOTED=\"hello world\"\n" +
		"OPENCLAW_TEST_SINGLE='single'\n" +
		"export OPENCLAW_TEST_EXPORTED=ok\n" +
		"OPENCLAW_TEST_URL=http://host/path?a=b\n" +
		"not a pair\n" +
		"OPENCLAW_TEST_EXISTING=from_file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("OPENCLAW_TEST_EXISTING", "already_set")
	for _, key := range []string{"OPENCLAW_TEST_FROM_FILE", "OPENCLAW_TEST_QUOTED", "OPENCLAW_TEST_SINGLE", "OPENCLAW_TEST_EXPORTED", "OPENCLAW_TEST_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	testCases := map[string]string{
		"OPENCLAW_TEST_FROM_FILE": "loaded",
		"OPENCLAW_TEST_QUOTED":    "hello world",
		"OPENCLAW_TEST_SINGLE":    "single",
		"OPENCLAW_TEST_EXPORTED":  "ok",
		"OPENCLAW_TEST_URL":       "http://host/path?a=b",
		"OPENCLAW_TEST_EXISTING":  "already_set",
	}
	for key, expected := range testCases {
		if got := os.Getenv(key); got != expected {
			t.Fatalf("expected %s=%q, got %q", key, expected, got)
		}
	}
}
