// Package buildinfo carries release metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/Pleso100/Kolgidrat/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/Pleso100/Kolgidrat/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/Pleso100/Kolgidrat/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
