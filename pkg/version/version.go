// Package version exposes build metadata set through -ldflags.
package version

//nolint:gochecknoglobals // Populated at link time.
var (
	version = "dev"
	commit  = "none"
)

// GetVersion returns the release version of the binary.
func GetVersion() string {
	return version
}

// GetCommit returns the VCS revision the binary was built from.
func GetCommit() string {
	return commit
}
