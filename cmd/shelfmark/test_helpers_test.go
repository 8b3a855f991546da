package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[store]
lock_timeout_seconds = 2
min_free_mib = 0

[journal]
enabled = true
path = %q

[logging]
level = "error"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "journal.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, env cliTestEnv, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append(args, "--config", env.configPath))
	err := cmd.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output %q does not contain %q", out, want)
	}
}

func mustAddBlock(t *testing.T, env cliTestEnv) {
	t.Helper()
	if _, err := runCLI(t, env, "add-block", "--publisher", "0306", "--start", "100", "--end", "109"); err != nil {
		t.Fatalf("add-block: %v", err)
	}
}
