package version

// Version is the current ytsift release.
const Version = "0.3.0"

// BuildVersion returns the version string for display.
func BuildVersion() string {
	return "ytsift version " + Version
}
