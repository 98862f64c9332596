package docker

import (
	"os"
	"strings"

	"github.com/docker/cli/cli/config"

	"github.com/kilnproject/kiln/pkg/util/console"
)

// registryHost returns the host portion of a registry reference, which is
// everything before the first slash.
func registryHost(registry string) string {
	host, _, found := strings.Cut(registry, "/")
	if !found {
		return registry
	}
	return host
}

// HaveCredentials reports whether the local docker config carries an auth
// entry or credential helper for the registry host. It never fails: an
// unreadable config just means no credentials were found.
func HaveCredentials(registry string) bool {
	conf := config.LoadDefaultConfigFile(os.Stderr)
	host := registryHost(registry)
	if _, ok := conf.AuthConfigs[host]; ok {
		return true
	}
	if _, ok := conf.CredentialHelpers[host]; ok {
		return true
	}
	return conf.CredentialsStore != ""
}

// warnOnMissingCredentials is advisory only. The push itself decides whether
// the credentials actually work.
func warnOnMissingCredentials(registry string) {
	if HaveCredentials(registry) {
		return
	}
	host := registryHost(registry)
	console.Warnf("No registry credentials found for %s, the push may fail. Run `docker login %s` first.", host, host)
}
