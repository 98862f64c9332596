package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
)

// Ping checks that a Docker daemon is reachable through the environment's
// standard connection settings.
func Ping(ctx context.Context, timeout time.Duration) error {
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return fmt.Errorf("Failed to create docker client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return err
	}
	return nil
}
