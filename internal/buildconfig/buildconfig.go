package buildconfig

import "fmt"

// Name identifies the service in health output and outbound requests.
const Name = "mindforge"

// Set with -ldflags "-X github.com/Harshitk-cp/mindforge/internal/buildconfig.version=..."
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// UserAgent is sent on every model provider request.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, version)
}

// VersionInfo is reported by the health endpoint.
func VersionInfo() map[string]string {
	info := map[string]string{
		"service": Name,
		"version": version,
		"commit":  commit,
	}
	if buildTime != "" {
		info["build_time"] = buildTime
	}
	return info
}
