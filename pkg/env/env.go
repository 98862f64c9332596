// Package env collects the environment variables kiln reads, so the set is
// discoverable in one place.
package env

import "os"

const (
	// PushEnvVarName gates pushing after a successful build. Pushing still
	// requires a registry on the spec; this only vetoes it.
	PushEnvVarName = "KILN_PUSH_IMAGE"

	// NoTelemetryEnvVarName disables the build event sink entirely.
	NoTelemetryEnvVarName = "KILN_NO_TELEMETRY"

	// TelemetryURLEnvVarName overrides where build events are posted.
	TelemetryURLEnvVarName = "KILN_TELEMETRY_URL"
)

const defaultTelemetryURL = "https://telemetry.kilnproject.dev/v1/events"

// PushFromEnvironment reports whether pushing is permitted. Unset means yes;
// only an explicit "0" or "false" turns it off.
func PushFromEnvironment() bool {
	switch os.Getenv(PushEnvVarName) {
	case "0", "false", "False", "FALSE":
		return false
	}
	return true
}

// TelemetryDisabled reports whether the user opted out of build events.
func TelemetryDisabled() bool {
	return os.Getenv(NoTelemetryEnvVarName) != ""
}

// TelemetryURLFromEnvironment returns the event endpoint.
func TelemetryURLFromEnvironment() string {
	url := os.Getenv(TelemetryURLEnvVarName)
	if url == "" {
		url = defaultTelemetryURL
	}
	return url
}
