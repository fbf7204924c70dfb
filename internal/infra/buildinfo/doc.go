// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/assetgw-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and build time fall back to the VCS stamp the Go toolchain
// embeds when ldflags leave them unset.
package buildinfo
