package http

import (
	"fmt"
	"net/http"

	"github.com/kilnproject/kiln/pkg/global"
)

const UserAgentHeader = "User-Agent"

func UserAgent() string {
	return fmt.Sprintf("Kiln/%s", global.Version)
}

// NewClient returns a client that identifies this kiln build on every
// request it sends.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &Transport{
			headers: map[string]string{
				UserAgentHeader: UserAgent(),
			},
		},
	}
}
