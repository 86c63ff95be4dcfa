package main

import (
	"strings"
	"testing"
)

func TestSubmitCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"submit", "--agent", "publish", "--action", "delete", "/content/site/en"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Queued")
	requireContains(t, out, "publish/default")

	// Connectivity probes carry no paths.
	out, _, err = runCLI(t, []string{"submit", "--agent", "publish", "--action", "test"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit test action: %v", err)
	}
	requireContains(t, out, "Queued")
}

func TestSubmitCommandValidation(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing agent", []string{"submit", "/content/a"}, "--agent is required"},
		{"unknown action", []string{"submit", "--agent", "publish", "--action", "replicate", "/content/a"}, "unknown action"},
		{"missing paths", []string{"submit", "--agent", "publish"}, "at least one content path"},
		{"unknown agent", []string{"submit", "--agent", "ghost", "/content/a"}, "ghost"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args, env.socketPath, env.configPath)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
