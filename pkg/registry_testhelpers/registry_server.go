// Package registry_testhelpers runs an in-process container registry so
// tests can exercise the real wire protocol without a daemon or network
// access.
package registry_testhelpers

import (
	"fmt"
	"io"
	stdlog "log"
	"net/http/httptest"
	"path"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/stretchr/testify/require"
)

// StartTestRegistry starts a registry on a random local port and tears it
// down when the test finishes. Safe to run concurrently across multiple
// tests. The registry uses a NOP logger to avoid spamming test logs.
func StartTestRegistry(t *testing.T) *TestRegistry {
	t.Helper()

	nopLog := stdlog.New(io.Discard, "", 0)
	server := httptest.NewServer(registry.New(registry.Logger(nopLog)))
	t.Cleanup(server.Close)

	return &TestRegistry{server: server}
}

type TestRegistry struct {
	server *httptest.Server
}

// RegistryHost returns the host:port to put in image references. It is a
// loopback address, which registry clients treat as insecure, so plain HTTP
// works.
func (r *TestRegistry) RegistryHost() string {
	return r.server.Listener.Addr().String()
}

// ImageRef prefixes ref with the registry host, turning "repo:tag" into an
// absolute reference.
func (r *TestRegistry) ImageRef(ref string) string {
	return path.Join(r.RegistryHost(), ref)
}

// ImageRefForTest returns a reference in a repository namespaced by the test
// name, so concurrent tests never collide.
func (r *TestRegistry) ImageRefForTest(t *testing.T, label string) string {
	if label == "" {
		label = "latest"
	}
	repo := strings.ToLower(t.Name())
	return r.ImageRef(fmt.Sprintf("%s:%s", repo, label))
}

// PushRandomImage pushes a tiny synthetic image to ref and returns the
// absolute reference.
func (r *TestRegistry) PushRandomImage(t *testing.T, ref string) string {
	t.Helper()

	image, err := random.Image(1024, 1)
	require.NoError(t, err)

	fullRef := r.ImageRef(ref)
	require.NoError(t, crane.Push(image, fullRef))
	return fullRef
}
