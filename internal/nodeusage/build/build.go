// Package build holds version information set at link time, e.g.
//
//	go build -ldflags "-X github.com/nodeusage/nodeusage/internal/nodeusage/build.ReleaseVersion=v1.2.0"
package build

import "runtime"

var (
	ReleaseVersion = "unknown"
	GitCommit      = "unknown"
	BuildTime      = "unknown"
	GoVersion      = runtime.Version()
)
