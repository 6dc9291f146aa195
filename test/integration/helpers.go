//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/fivetwenty-io/restprovider/internal/fakerest"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	APIURL      string
	CountHeader string
	BinaryPath  string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables. Without
// RESTPROV_INTEGRATION_API an in-memory backend is started for the test.
func LoadTestConfig(t *testing.T) *TestConfig {
	t.Helper()

	config := &TestConfig{
		APIURL:      os.Getenv("RESTPROV_INTEGRATION_API"),
		CountHeader: os.Getenv("RESTPROV_INTEGRATION_COUNT_HEADER"),
		BinaryPath:  getBinaryPath(),
		Verbose:     os.Getenv("RESTPROV_VERBOSE") == "true",
	}

	if config.APIURL == "" {
		config.APIURL = startBackend(t)
	}

	return config
}

// startBackend serves an empty in-memory store for the duration of the test.
func startBackend(t *testing.T) string {
	t.Helper()

	store := fakerest.NewStore(nil)
	store.Seed(map[string][]provider.Record{"posts": {}})

	server := httptest.NewServer(fakerest.NewServer(store).Handler())
	t.Cleanup(server.Close)

	return server.URL
}

// getBinaryPath determines the path to the restprov binary.
func getBinaryPath() string {
	if path := os.Getenv("RESTPROV_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../restprov", "./restprov", "../restprov"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// SkipIfNoBinary skips CLI tests when the binary has not been built.
func (config *TestConfig) SkipIfNoBinary(t *testing.T) {
	t.Helper()

	if config.BinaryPath == "" {
		t.Skip("restprov binary not found, set RESTPROV_BINARY_PATH to run CLI integration tests")
	}
}

// CommandRunner runs restprov commands against the configured backend.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a restprov command with JSON output and returns its output.
func (runner *CommandRunner) Run(args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	full := append([]string{"--api", runner.config.APIURL, "--output", "json", "--env-file", ""}, args...)
	if runner.config.CountHeader != "" {
		full = append([]string{"--count-header", runner.config.CountHeader}, full...)
	}

	cmd := exec.CommandContext(ctx, runner.config.BinaryPath, full...) // #nosec G204 -- test binary

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	// Keep a developer's own config file out of the test.
	cmd.Env = append(os.Environ(), "HOME="+runner.t.TempDir())

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(full, " "))
	}

	err := cmd.Run()
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdoutBuf.String(), stderrBuf.String())
	}

	return stdoutBuf.String(), stderrBuf.String(), err
}

// GenerateTestName creates a unique test record title.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
