// Package version holds build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/fieldops/trackapi/internal/version.Version=v1.0.0 \
//	  -X github.com/fieldops/trackapi/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/trackapi
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata as "trackapi <version> (<commit>, built <date>)".
func String() string {
	return fmt.Sprintf("trackapi %s (%s, built %s)", Version, Commit, Date)
}
