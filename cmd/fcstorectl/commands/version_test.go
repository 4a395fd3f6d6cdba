package commands

import "testing"

func TestVersionCmdRuns(t *testing.T) {
	out := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})
	if out == "" {
		t.Fatal("expected version output, got none")
	}
}
