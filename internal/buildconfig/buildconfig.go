package buildconfig

import "fmt"

// Build-time variables injected via ldflags:
//
//	-ldflags "-X github.com/Harshitk-cp/epistate/internal/buildconfig.version=v0.3.0"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// String is the one-line form printed by the version command and the server banner.
func String() string {
	if buildDate == "" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", version, commit, buildDate)
}

// VersionInfo is the build section of /metrics.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
	}
	if buildDate != "" {
		info["build_date"] = buildDate
	}
	return info
}
