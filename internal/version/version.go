// Package version carries the build version, set at link time with
// -ldflags "-X github.com/cmass-sales/visitlog/internal/version.Version=...".
package version

var Version = "dev"
