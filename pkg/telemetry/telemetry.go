// Package telemetry posts build events to an opt-out collection endpoint.
// Everything here is best effort: a build must never fail or stall because
// the event sink is slow or down.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/kilnproject/kiln/pkg/env"
	"github.com/kilnproject/kiln/pkg/global"
	kilnHttp "github.com/kilnproject/kiln/pkg/http"
	"github.com/kilnproject/kiln/pkg/util/console"
)

const postTimeout = time.Second

// Event is one build outcome. It carries no image names or registry hosts,
// only the content id hash and how the build went.
type Event struct {
	Action          string  `json:"action"`
	ImageID         string  `json:"image_id,omitempty"`
	Builder         string  `json:"builder,omitempty"`
	Success         bool    `json:"success"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Record posts event in the background and returns immediately, reporting
// whether an event was dispatched at all. The goroutine it starts never
// surfaces failure anywhere but the debug log.
func Record(event Event) bool {
	if env.TelemetryDisabled() {
		return false
	}
	event.Version = global.Version
	event.OS = runtime.GOOS
	event.Arch = runtime.GOARCH

	url := env.TelemetryURLFromEnvironment()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()
		if err := post(ctx, url, event); err != nil {
			console.Debugf("Failed to record build event: %v", err)
		}
	}()
	return true
}

func post(ctx context.Context, url string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := kilnHttp.NewClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("event sink answered %s", resp.Status)
	}
	return nil
}
