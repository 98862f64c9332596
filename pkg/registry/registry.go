// Package registry answers whether an image tag already exists remotely, so
// builds of unchanged specs can be skipped.
//
// ECR registries get a fast path through the aws CLI, which sees private
// repositories that an anonymous manifest probe cannot. Everything else, and
// any ECR check the CLI cannot settle, goes through the standard registry
// API. An inconclusive answer from both paths is an error: the caller must
// not rebuild and overwrite a tag it could not verify.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"

	"github.com/kilnproject/kiln/pkg/command"
	"github.com/kilnproject/kiln/pkg/util/console"
)

// ecrHostPattern is the <account-id>.dkr.ecr.<region>.amazonaws.com shape of
// a private ECR registry host.
var ecrHostPattern = regexp.MustCompile(`^\d{12}\.dkr\.ecr\.[a-z0-9-]+\.amazonaws\.com$`)

// IsECRHost reports whether host names a private ECR registry. Pure string
// classification, no network or filesystem access.
func IsECRHost(host string) bool {
	return ecrHostPattern.MatchString(host)
}

// answer is the three-valued result of the ECR fast path. A not-found from
// the API is a real answer; an unexpected failure is not.
type answer int

const (
	answerUnknown answer = iota
	answerExists
	answerAbsent
)

type Checker struct {
	runner command.Runner

	// head is swapped out in tests so they do not need a live registry.
	head func(ctx context.Context, ref name.Reference) (bool, error)
}

func NewChecker(runner command.Runner) *Checker {
	return &Checker{runner: runner, head: headManifest}
}

// Exists reports whether imageRef is already present in its registry.
// Exactly one of {true, false, error} comes back per call: an error means
// neither path could settle the question, never that the image is absent.
func (c *Checker) Exists(ctx context.Context, imageRef string) (bool, error) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return false, fmt.Errorf("Invalid image reference %q: %w", imageRef, err)
	}

	host := ref.Context().RegistryStr()
	if IsECRHost(host) && c.awsUsable(ctx) {
		switch c.ecrImageExists(ctx, host, ref.Context().RepositoryStr(), tagOf(ref)) {
		case answerExists:
			return true, nil
		case answerAbsent:
			// a definitive no from ECR, nothing left to ask
			return false, nil
		case answerUnknown:
			console.Debug("ECR fast path was inconclusive, falling back to the registry API")
		}
	}

	exists, err := c.head(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("Could not determine whether %s exists: %w. Check registry credentials and network access, then retry", imageRef, err)
	}
	return exists, nil
}

// awsUsable verifies the aws CLI is installed and its credentials work. Each
// check short-circuits: no CLI means no point asking about credentials.
func (c *Checker) awsUsable(ctx context.Context) bool {
	if _, err := c.runner.LookPath("aws"); err != nil {
		return false
	}
	if _, err := c.runner.Output(ctx, "aws", "sts", "get-caller-identity"); err != nil {
		return false
	}
	return true
}

func (c *Checker) ecrImageExists(ctx context.Context, host, repository, tag string) answer {
	accountID, region := ecrParts(host)
	out, err := c.runner.Output(ctx, "aws", "ecr", "describe-images",
		"--registry-id", accountID,
		"--region", region,
		"--repository-name", repository,
		"--image-ids", "imageTag="+tag,
		"--output", "json",
	)
	if err != nil {
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) && isECRNotFound(cmdErr.Stderr) {
			return answerAbsent
		}
		console.Debugf("ECR describe-images failed: %v", err)
		return answerUnknown
	}

	var described struct {
		ImageDetails []json.RawMessage `json:"imageDetails"`
	}
	if err := json.Unmarshal(out, &described); err != nil {
		console.Debugf("Could not parse ECR describe-images output: %v", err)
		return answerUnknown
	}
	if len(described.ImageDetails) == 0 {
		return answerAbsent
	}
	return answerExists
}

// ecrParts splits an already-validated ECR host into account id and region.
func ecrParts(host string) (accountID, region string) {
	parts := strings.Split(host, ".")
	return parts[0], parts[3]
}

func isECRNotFound(stderr string) bool {
	return strings.Contains(stderr, "ImageNotFoundException") ||
		strings.Contains(stderr, "RepositoryNotFoundException")
}

func tagOf(ref name.Reference) string {
	if tag, ok := ref.(name.Tag); ok {
		return tag.TagStr()
	}
	return ""
}

// headManifest asks the registry for the manifest without downloading it.
func headManifest(ctx context.Context, ref name.Reference) (bool, error) {
	_, err := remote.Head(ref,
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
	)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error) bool {
	var transportErr *transport.Error
	if !errors.As(err, &transportErr) {
		return false
	}
	if transportErr.StatusCode == http.StatusNotFound {
		return true
	}
	for _, diagnostic := range transportErr.Errors {
		switch diagnostic.Code {
		case transport.ManifestUnknownErrorCode, transport.NameUnknownErrorCode:
			return true
		}
	}
	return false
}
