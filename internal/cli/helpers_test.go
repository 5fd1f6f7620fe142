package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario file into a temp dir and returns its path.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// executeCommand runs the root command with args, returning stdout and stderr.
func executeCommand(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = &RootOptions{}
	}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const passingScenario = `
at: "00:01:00"
journey: sample.Passing
after_test: STAY_IN_APP
`

const failingScenario = `
at: "00:02:00"
journey: sample.Failing
after_test: EXIT
`
