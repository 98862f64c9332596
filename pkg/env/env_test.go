package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushFromEnvironment(t *testing.T) {
	require.True(t, PushFromEnvironment())

	t.Setenv(PushEnvVarName, "false")
	require.False(t, PushFromEnvironment())

	t.Setenv(PushEnvVarName, "0")
	require.False(t, PushFromEnvironment())

	t.Setenv(PushEnvVarName, "1")
	require.True(t, PushFromEnvironment())
}

func TestTelemetryURLFromEnvironment(t *testing.T) {
	const testURL = "http://localhost:9999/events"
	t.Setenv(TelemetryURLEnvVarName, testURL)
	require.Equal(t, TelemetryURLFromEnvironment(), testURL)
}

func TestTelemetryDisabled(t *testing.T) {
	require.False(t, TelemetryDisabled())
	t.Setenv(NoTelemetryEnvVarName, "1")
	require.True(t, TelemetryDisabled())
}
