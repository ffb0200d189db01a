package invk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/invk/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "invk"
	}

	// go test changes the CWD to the test package directory, relative paths would break.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("INVK_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("invk binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "INVK_INTEGRATION"
		envBinary     = "INVK_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Env is an isolated environment for invk: its own home, working directory and history.
type Env struct {
	Home   string
	Dir    string
	DBPath string
}

// NewEnv creates a new isolated environment on temporary directories.
func NewEnv(t *testing.T) Env {
	t.Helper()

	home := t.TempDir()
	return Env{
		Home:   home,
		Dir:    t.TempDir(),
		DBPath: filepath.Join(home, "history.db"),
	}
}

func (e Env) vars() []string {
	return []string{
		"HOME=" + e.Home,
		"INVK_DB_PATH=" + e.DBPath,
	}
}

// Run runs invk with pre-split arguments on the environment.
func Run(ctx context.Context, config Config, env Env, args ...string) (stdout, stderr []byte, err error) {
	return testutils.RunInvkArgs(ctx, env.vars(), env.Dir, config.Binary, args, true)
}

// RunCmd runs invk with an arguments string split by spaces on the environment.
func RunCmd(ctx context.Context, config Config, env Env, cmdArgs string) (stdout, stderr []byte, err error) {
	return testutils.RunInvk(ctx, env.vars(), env.Dir, config.Binary, cmdArgs, true)
}
