package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlighty/bi-agent-dashboard/internal/athena"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
	"github.com/mlighty/bi-agent-dashboard/pkg/version"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  string
		want string
	}{
		{"missing required environment variables: HUBSPOT_ACCESS_TOKEN", "config_error"},
		{"rate limited after 5 attempts", "rate_limit_error"},
		{"open duckdb: disk full", "database_error"},
		{"connection refused", "network_error"},
		{"query \"foo\" not found in /tmp/sources", "not_found_error"},
		{"invalid table name", "validation_error"},
		{"something else entirely", "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(errors.New(tt.err)))
		})
	}
}

func TestTrackCLIError_NilPassthrough(t *testing.T) {
	telemetryClient = telemetry.New(nil)
	assert.NoError(t, trackCLIError("sync", nil))

	err := errors.New("boom")
	assert.Same(t, err, trackCLIError("sync", err))
}

func TestFilterQueries(t *testing.T) {
	queries := []athena.Query{
		{Name: "churn", SQL: "SELECT 1"},
		{Name: "revenue", SQL: "SELECT 2"},
	}

	filtered := filterQueries(queries, "revenue")
	require.Len(t, filtered, 1)
	assert.Equal(t, "SELECT 2", filtered[0].SQL)

	assert.Empty(t, filterQueries(queries, "missing"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionFull = false
	require.NoError(t, runVersion(versionCmd, nil))
	assert.Contains(t, out.String(), "bidash")
	assert.Contains(t, out.String(), version.Short())

	out.Reset()
	versionFull = true
	defer func() { versionFull = false }()
	require.NoError(t, runVersion(versionCmd, nil))
	assert.Contains(t, out.String(), "Commit:")
	assert.Contains(t, out.String(), "OS/Arch:")
}

func TestHubSpotSync_MissingTokenFailsBeforeNetwork(t *testing.T) {
	telemetryClient = telemetry.New(nil)
	t.Setenv("BIDASH_DATA_DIR", t.TempDir())
	t.Setenv("HUBSPOT_ACCESS_TOKEN", "")

	err := runHubSpotSync(hubspotSyncCmd, nil)
	require.Error(t, err)

	var missing *config.MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Vars, "HUBSPOT_ACCESS_TOKEN")
}

func TestAthenaSync_MissingCredentialsFailBeforeNetwork(t *testing.T) {
	telemetryClient = telemetry.New(nil)
	t.Setenv("BIDASH_DATA_DIR", t.TempDir())
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("ATHENA_DATABASE", "")
	t.Setenv("ATHENA_OUTPUT_BUCKET", "")

	err := runAthenaSync(athenaSyncCmd, nil)
	require.Error(t, err)

	var missing *config.MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Vars, "AWS_ACCESS_KEY_ID")
	assert.Contains(t, missing.Vars, "ATHENA_OUTPUT_BUCKET")
}
