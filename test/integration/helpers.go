//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint  string
	ClientID     string
	ClientSecret string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint:  os.Getenv("SUITECRM_API"),
		ClientID:     os.Getenv("SUITECRM_CLIENT_ID"),
		ClientSecret: os.Getenv("SUITECRM_CLIENT_SECRET"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("SUITECRM_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the suitecrm binary
func getBinaryPath() string {
	if path := os.Getenv("SUITECRM_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../suitecrm",
		"./suitecrm",
		"../suitecrm",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "suitecrm"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIEndpoint == "" || config.ClientID == "" || config.ClientSecret == "" {
		t.Skip("SUITECRM_API, SUITECRM_CLIENT_ID or SUITECRM_CLIENT_SECRET not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("suitecrm binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs suitecrm commands against an isolated home directory
type CommandRunner struct {
	config *TestConfig
	home   string
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		home:   t.TempDir(),
		t:      t,
	}
}

// Run executes a suitecrm command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...) // #nosec G204 -- test binary
	cmd.Env = append(os.Environ(), "HOME="+runner.home)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login authenticates with the configured client credentials
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.Run("login",
		"--api", runner.config.APIEndpoint,
		"--client-id", runner.config.ClientID,
		"--client-secret", runner.config.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to login: %s", stderr)
	}

	return nil
}

// RunJSON runs a command with JSON output and decodes it into out
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "suitecrm %s: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), stdout)
}

// CreateRecord creates a record and returns it
func (runner *CommandRunner) CreateRecord(module string, attributes ...string) suitecrm.Record {
	runner.t.Helper()

	var record suitecrm.Record

	runner.RunJSON(&record, append([]string{"records", "create", module}, attributes...)...)
	require.NotEmpty(runner.t, record.ID)

	return record
}

// CleanupRecord attempts to delete a test record
func (runner *CommandRunner) CleanupRecord(module, id string) {
	stdout, stderr, err := runner.Run("records", "delete", module, id)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", module, id, stdout, stderr)
	}
}

// GenerateTestName creates a unique test record name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
