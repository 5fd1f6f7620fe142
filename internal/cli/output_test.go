package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/longevity/internal/journey"
	"github.com/roach88/longevity/internal/store"
)

// decodeEnvelope requires out to hold exactly one JSON response.
func decodeEnvelope[T any](t *testing.T, out string) (string, T, *ResponseError) {
	t.Helper()
	require.Equal(t, 1, strings.Count(out, "\n"), "one envelope per command: %q", out)
	var resp struct {
		Status string         `json:"status"`
		Data   T              `json:"data"`
		Error  *ResponseError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Status, resp.Data, resp.Error
}

func TestEnvelope_FailedRunIsOkResult(t *testing.T) {
	path := writeScenario(t, "failing.yaml", failingScenario)

	out, _, err := executeCommand(t, nil, "--format", "json", "run", "--window", "50ms", "--teardown-leeway-ms", "0", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	status, summary, respErr := decodeEnvelope[RunSummary](t, out)
	assert.Equal(t, "ok", status)
	assert.Nil(t, respErr)
	assert.Equal(t, store.StatusFailed, summary.Status)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0], journey.SampleFailureMessage)
}

func TestEnvelope_InvalidScenarioIsOkResult(t *testing.T) {
	path := writeScenario(t, "unknown.yaml", "journey: app.Missing\n")

	out, _, err := executeCommand(t, nil, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	status, result, respErr := decodeEnvelope[ValidationResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Nil(t, respErr)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrCodeUnknownJourney, result.Errors[0].Code)
}

func TestEnvelope_CommandErrors(t *testing.T) {
	passing := writeScenario(t, "passing.yaml", passingScenario)
	unknown := writeScenario(t, "unknown.yaml", "journey: app.Missing\n")
	noDir := filepath.Join(t.TempDir(), "missing", "journal.db")

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantMsg  string
	}{
		{"missing scenario", []string{"run", filepath.Join(t.TempDir(), "absent.yaml")}, ErrCodeNotFound, "failed to load scenario"},
		{"unregistered journey", []string{"run", unknown}, ErrCodeUnknownJourney, "failed to initialize scenario"},
		{"bad arg", []string{"run", "--arg", "novalue", passing}, ErrCodeUsage, "invalid --arg"},
		{"window inside leeway", []string{"run", "--window", "1s", passing}, ErrCodeUsage, "shorter than the teardown leeway"},
		{"unopenable journal", []string{"run", "--window", "50ms", "--teardown-leeway-ms", "0", "--db", noDir, passing}, ErrCodeJournal, "failed to open database"},
		{"history status", []string{"history", "--db", filepath.Join(t.TempDir(), "j.db"), "--status", "done"}, ErrCodeUsage, "invalid --status"},
		{"history journal", []string{"history", "--db", noDir}, ErrCodeJournal, "failed to open database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, nil, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			status, _, respErr := decodeEnvelope[json.RawMessage](t, out)
			assert.Equal(t, "error", status)
			require.NotNil(t, respErr)
			assert.Equal(t, tt.wantCode, respErr.Code)
			assert.Contains(t, respErr.Message, tt.wantMsg)
			assert.Equal(t, err.Error(), respErr.Message)
		})
	}
}

func TestEnvelope_TextModeLeavesErrorsToCaller(t *testing.T) {
	out, _, err := executeCommand(t, nil, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, out)
}

func TestEnvelope_VerboseLinesStayOffStdout(t *testing.T) {
	path := writeScenario(t, "passing.yaml", passingScenario)

	out, stderr, err := executeCommand(t, nil, "--format", "json", "--verbose", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Validated "+path+": valid=true")

	status, result, _ := decodeEnvelope[ValidationResult](t, out)
	assert.Equal(t, "ok", status)
	assert.True(t, result.Valid)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("unknown flag: --nope")))
	assert.Equal(t, ExitCommandError, GetExitCode(commandError(ErrCodeUsage, "invalid --arg", nil)))

	wrapped := fmt.Errorf("outer: %w", commandError(ErrCodeJournal, "failed to journal run", errors.New("disk full")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "failed to journal run: disk full", errors.Unwrap(wrapped).Error())
	assert.Equal(t, ExitFailure, GetExitCode(outcomeError("journey sample.Failing failed")))
}
