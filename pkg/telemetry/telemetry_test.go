package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilnproject/kiln/pkg/env"
	kilnHttp "github.com/kilnproject/kiln/pkg/http"
)

func TestRecordPostsEvent(t *testing.T) {
	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, kilnHttp.UserAgent(), r.Header.Get(kilnHttp.UserAgentHeader))
		var event Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
	}))
	defer server.Close()
	t.Setenv(env.TelemetryURLEnvVarName, server.URL)

	dispatched := Record(Event{Action: "build", ImageID: "abc123", Builder: "default", Success: true})
	require.True(t, dispatched)

	select {
	case event := <-received:
		require.Equal(t, "build", event.Action)
		require.Equal(t, "abc123", event.ImageID)
		require.True(t, event.Success)
		require.NotEmpty(t, event.Version)
		require.NotEmpty(t, event.OS)
	case <-time.After(2 * time.Second):
		t.Fatal("no event arrived at the sink")
	}
}

func TestRecordHonorsOptOut(t *testing.T) {
	t.Setenv(env.NoTelemetryEnvVarName, "1")
	require.False(t, Record(Event{Action: "build"}))
}
