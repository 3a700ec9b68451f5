package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknownStr = "unknown"

// Version information set by build using -ldflags
var (
	// Version is the current version of the marketplace server
	Version = "dev"
	// Commit is the git commit hash of the build
	//nolint:goconst // This is a placeholder for the commit hash
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	//nolint:goconst // This is a placeholder for the build date
	BuildDate = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String renders the version info for the `version` command
func (v VersionInfo) String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuilt: %s\nGo version: %s\nPlatform: %s",
		v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return versionInfoFrom(Version, Commit, BuildDate, readVCSSettings())
}

// readVCSSettings pulls vcs.* stamps recorded by the Go toolchain
func readVCSSettings() map[string]string {
	settings := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, setting := range info.Settings {
		if strings.HasPrefix(setting.Key, "vcs.") {
			settings[setting.Key] = setting.Value
		}
	}
	return settings
}

func versionInfoFrom(version, commit, buildDate string, vcs map[string]string) VersionInfo {
	if strings.HasPrefix(version, "dev") {
		if commit == unknownStr && vcs["vcs.revision"] != "" {
			commit = vcs["vcs.revision"]
		}
		if buildDate == unknownStr && vcs["vcs.time"] != "" {
			buildDate = vcs["vcs.time"]
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.Format("2006-01-02 15:04:05 MST")
	}

	// A bare "dev" version becomes build-<short commit>
	if version == "dev" {
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
